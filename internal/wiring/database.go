package wiring

import (
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql/adapters/postgres"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database/sql/adapters/sqlite"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
)

// NewDatabase builds the sql.SQL named by cfg.Driver, wrapped in an
// InstrumentedManager that logs shard-resolution failures and shutdown; it
// opens no trace spans.
func NewDatabase(cfg sql.Config) (database.DB, error) {
	var (
		db  sql.SQL
		err error
	)

	switch cfg.Driver {
	case database.DriverPostgres:
		db, err = postgres.New(cfg)
	case database.DriverSQLite:
		db, err = sqlite.New(cfg)
	default:
		return nil, errors.New(errors.CodeInvalidArgument, "unknown db driver "+cfg.Driver, nil)
	}
	if err != nil {
		return nil, err
	}

	return database.NewInstrumentedManager(db), nil
}
