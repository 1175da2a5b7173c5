// Package contract defines the wire schemas exchanged over the message
// bus: the pointer a producer announces, and the ack a branch consumer
// emits once it has fetched and verified the referenced object.
package contract

import "time"

// Schema tags identify the message version on the wire. A consumer that
// sees a tag it doesn't recognize treats the message as inert rather than
// fatal, per the forward-compatibility rule for pointer processing.
const (
	SchemaPointerV1 = "s3-pointer-v1"
	SchemaAckV1     = "s3-ack-v1"

	EncodingGzip      = "gzip"
	ContentTypeJSON   = "application/json"
	AckStatusProcessed = "processed"
)

// Pointer is the s3-pointer-v1 payload a producer publishes after
// uploading an object to blob storage.
type Pointer struct {
	Schema      string    `json:"schema"`
	PointerID   string    `json:"pointer_id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Encoding    string    `json:"encoding"`
	ContentType string    `json:"content_type"`
	SizeRaw     int64     `json:"size_raw"`
	SizeGz      int64     `json:"size_gz"`
	SHA256      string    `json:"sha256"`
	Recipients  int       `json:"recipients_total"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ack is the s3-ack-v1 payload a branch consumer publishes after
// verifying a fetched object.
type Ack struct {
	Schema      string    `json:"schema"`
	PointerID   string    `json:"pointer_id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	RecipientID string    `json:"recipient_id"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
	Recipients  int       `json:"recipients_total"`
}
