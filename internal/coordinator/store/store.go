// Package store persists the coordinator's authoritative view of each
// announced object and the acknowledgements recorded against it, and
// implements the single compare-and-set that grants the right to delete a
// blob exactly once.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jar7nt/exchg-s3-rmq-demo/internal/contract"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
)

// Object mirrors the objects table. Pointers to scalars distinguish an
// unset column from a zero value, which matters for telling a placeholder
// row (no bucket/key/recipients yet) apart from a fully populated one.
type Object struct {
	PointerID         string     `gorm:"column:pointer_id;primaryKey"`
	Bucket            *string    `gorm:"column:bucket"`
	ObjectKey         *string    `gorm:"column:object_key"`
	RecipientsTotal   *int       `gorm:"column:recipients_total"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	PointerReceivedAt *time.Time `gorm:"column:pointer_received_at"`
	DeletedAt         *time.Time `gorm:"column:deleted_at"`
}

func (Object) TableName() string { return "objects" }

// Ack mirrors the acks table. The composite primary key is what makes a
// duplicate ACK delivery collapse to a no-op at insert time.
type Ack struct {
	PointerID   string    `gorm:"column:pointer_id;primaryKey"`
	RecipientID string    `gorm:"column:recipient_id;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (Ack) TableName() string { return "acks" }

// Aggregate is the post-ACK read-back the deletion gate evaluates.
type Aggregate struct {
	PointerReceivedAt *time.Time
	DeletedAt         *time.Time
	Bucket            string
	ObjectKey         string
	RecipientsTotal   int
	AckCount          int64
}

// Ready reports whether the aggregate satisfies the deletion gate: the
// pointer has arrived, deletion hasn't already happened, and every
// recipient has acknowledged.
func (a *Aggregate) Ready() bool {
	return a.PointerReceivedAt != nil && a.DeletedAt == nil && a.AckCount >= int64(a.RecipientsTotal)
}

// Store is the coordinator's persistence boundary.
type Store interface {
	// UpsertPointer establishes or upgrades the object row for p.PointerID,
	// per the rules in the pointer handler's upsert operation: insert if
	// absent, populate-in-place if a placeholder, no-op if already real.
	UpsertPointer(ctx context.Context, p contract.Pointer) error

	// RecordAck ensures an object row exists (inserting a placeholder if
	// needed), inserts the ACK row (no-op on duplicate), and returns the
	// aggregate state needed to evaluate the deletion gate.
	RecordAck(ctx context.Context, a contract.Ack) (*Aggregate, error)

	// TryClaimDeletion attempts the single compare-and-set that transitions
	// deleted_at from NULL to now for pointerID. claimed is false if
	// another worker already won the race or the row isn't eligible.
	TryClaimDeletion(ctx context.Context, pointerID string) (bucket, key string, claimed bool, err error)

	// ReadAggregate reads the current object row and ack count for
	// pointerID, without mutating anything. Used by the pointer handler's
	// post-upsert re-check for the case where every ACK already arrived
	// before the pointer did.
	ReadAggregate(ctx context.Context, pointerID string) (*Aggregate, error)
}

type gormStore struct {
	db database.DB
}

// New builds a Store backed by db.
func New(db database.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) UpsertPointer(ctx context.Context, p contract.Pointer) error {
	return s.db.Get(ctx).Transaction(func(tx *gorm.DB) error {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		receivedAt := time.Now().UTC()
		recipients := p.Recipients
		bucket := p.Bucket
		key := p.Key

		row := Object{
			PointerID:         p.PointerID,
			Bucket:            &bucket,
			ObjectKey:         &key,
			RecipientsTotal:   &recipients,
			CreatedAt:         createdAt,
			PointerReceivedAt: &receivedAt,
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to insert object row")
		}
		if res.RowsAffected > 0 {
			// Fresh row, fully populated. Nothing more to do.
			return nil
		}

		// A row for this pointer_id already existed. Upgrade it only if it
		// is still a placeholder; a real row is left untouched, per the
		// pointer handler's simplest-correct no-op rule for duplicates.
		upgrade := tx.Model(&Object{}).
			Where("pointer_id = ? AND pointer_received_at IS NULL", p.PointerID).
			Updates(map[string]interface{}{
				"bucket":              bucket,
				"object_key":          key,
				"recipients_total":    recipients,
				"created_at":          createdAt,
				"pointer_received_at": receivedAt,
			})
		if upgrade.Error != nil {
			return errors.Wrap(upgrade.Error, "failed to upgrade placeholder object row")
		}
		return nil
	})
}

func (s *gormStore) RecordAck(ctx context.Context, a contract.Ack) (*Aggregate, error) {
	var agg Aggregate

	err := s.db.Get(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		placeholder := Object{PointerID: a.PointerID, CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return errors.Wrap(err, "failed to insert placeholder object row")
		}

		processedAt := a.ProcessedAt
		if processedAt.IsZero() {
			processedAt = now
		}
		ackRow := Ack{PointerID: a.PointerID, RecipientID: a.RecipientID, ProcessedAt: processedAt}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ackRow).Error; err != nil {
			return errors.Wrap(err, "failed to insert ack row")
		}

		var obj Object
		if err := tx.First(&obj, "pointer_id = ?", a.PointerID).Error; err != nil {
			return errors.Wrap(err, "failed to read object row")
		}

		var count int64
		if err := tx.Model(&Ack{}).Where("pointer_id = ?", a.PointerID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to count acks")
		}

		agg = toAggregate(obj, count)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (s *gormStore) ReadAggregate(ctx context.Context, pointerID string) (*Aggregate, error) {
	var agg Aggregate

	err := s.db.Get(ctx).Transaction(func(tx *gorm.DB) error {
		var obj Object
		if err := tx.First(&obj, "pointer_id = ?", pointerID).Error; err != nil {
			if errorsIsRecordNotFound(err) {
				agg = Aggregate{}
				return nil
			}
			return errors.Wrap(err, "failed to read object row")
		}

		var count int64
		if err := tx.Model(&Ack{}).Where("pointer_id = ?", pointerID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to count acks")
		}

		agg = toAggregate(obj, count)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func toAggregate(obj Object, ackCount int64) Aggregate {
	agg := Aggregate{
		PointerReceivedAt: obj.PointerReceivedAt,
		DeletedAt:         obj.DeletedAt,
		AckCount:          ackCount,
	}
	if obj.Bucket != nil {
		agg.Bucket = *obj.Bucket
	}
	if obj.ObjectKey != nil {
		agg.ObjectKey = *obj.ObjectKey
	}
	if obj.RecipientsTotal != nil {
		agg.RecipientsTotal = *obj.RecipientsTotal
	}
	return agg
}

func errorsIsRecordNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}

func (s *gormStore) TryClaimDeletion(ctx context.Context, pointerID string) (bucket, key string, claimed bool, err error) {
	err = s.db.Get(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&Object{}).
			Where("pointer_id = ? AND deleted_at IS NULL AND pointer_received_at IS NOT NULL", pointerID).
			Update("deleted_at", now)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to claim deletion")
		}
		if res.RowsAffected == 0 {
			claimed = false
			return nil
		}

		var obj Object
		if err := tx.First(&obj, "pointer_id = ?", pointerID).Error; err != nil {
			return errors.Wrap(err, "failed to read object row after claiming deletion")
		}

		claimed = true
		if obj.Bucket != nil {
			bucket = *obj.Bucket
		}
		if obj.ObjectKey != nil {
			key = *obj.ObjectKey
		}
		return nil
	})
	return bucket, key, claimed, err
}
