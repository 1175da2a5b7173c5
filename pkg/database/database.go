// Package database defines the relational store abstraction used by the
// coordinator's objects/acks bookkeeping. Concrete engines live under
// pkg/database/sql/adapters/{postgres,sqlite}; callers depend only on the
// DB interface defined here.
package database

import (
	"context"
	"log/slog"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver names accepted by sql.Config.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is the handle a caller uses to reach a relational engine. GetShard
// exists for parity with the rest of the pack's multi-shard stores; the
// coordinator runs single-instance and always gets the primary connection
// back.
type DB interface {
	Get(ctx context.Context) *gorm.DB
	GetShard(ctx context.Context, key string) (*gorm.DB, error)
	Close() error
}

// NewGORMLogger adapts GORM's logger interface onto the package-wide slog
// logger so query logs carry the same handlers (sampling, redaction,
// trace injection) as everything else.
func NewGORMLogger() gormlogger.Interface {
	return &slogGormLogger{level: gormlogger.Warn}
}

type slogGormLogger struct {
	level gormlogger.LogLevel
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level < gormlogger.Info {
		return
	}
	slog.Default().InfoContext(ctx, msg, "args", args)
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level < gormlogger.Warn {
		return
	}
	slog.Default().WarnContext(ctx, msg, "args", args)
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level < gormlogger.Error {
		return
	}
	slog.Default().ErrorContext(ctx, msg, "args", args)
}

func (l *slogGormLogger) Trace(ctx context.Context, begin interface{}, fc func() (string, int64), err error) {
	_ = begin
	if l.level <= gormlogger.Silent {
		return
	}
	sql, rows := fc()
	attrs := []any{"rows", rows, "sql", sql}
	if err != nil {
		slog.Default().ErrorContext(ctx, "gorm query failed", append(attrs, "error", err)...)
		return
	}
	if l.level >= gormlogger.Info {
		slog.Default().DebugContext(ctx, "gorm query", attrs...)
	}
}
