// Package wiring is the composition root shared by the three binaries
// under cmd/: it turns a loaded Config into the concrete Store, DB, and
// Broker each driver selects, so main.go itself stays a thin sequence of
// "load config, wire, run, shut down".
package wiring

import (
	"context"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/errors"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/azureblob"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/gcs"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/local"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/memory"
	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/storage/blob/adapters/s3"
)

// NewBlobStore builds the Store named by cfg.Driver, instrumented with
// logging and tracing and wrapped with circuit-breaker/retry resilience
// for transient failures on the read path.
func NewBlobStore(ctx context.Context, cfg blob.Config, resilienceCfg blob.ResilientStoreConfig) (blob.Store, error) {
	var (
		store blob.Store
		err   error
	)

	switch cfg.Driver {
	case "s3":
		store, err = s3.New(ctx, cfg)
	case "gcs":
		store, err = gcs.New(ctx)
	case "azureblob":
		store, err = azureblob.New(cfg)
	case "local":
		store, err = local.New(cfg)
	case "memory":
		store = memory.New(cfg)
	default:
		return nil, errors.New(errors.CodeInvalidArgument, "unknown blob driver "+cfg.Driver, nil)
	}
	if err != nil {
		return nil, err
	}

	instrumented := blob.NewInstrumentedStore(store, cfg.Driver)
	return blob.NewResilientStore(instrumented, resilienceCfg), nil
}
