// Package sql holds the configuration and interface shared by the
// relational engine adapters under pkg/database/sql/adapters.
package sql

import (
	"time"

	"github.com/jar7nt/exchg-s3-rmq-demo/pkg/database"
)

// Config configures a relational connection. Driver selects which adapter's
// New to call; SQLite ignores the network fields and treats Name as a
// filesystem path.
type Config struct {
	Driver   string `env:"DB_DRIVER" env-default:"postgres" validate:"required,oneof=postgres sqlite"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"coordinator"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`

	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

// SQL is the interface each engine adapter implements. It is identical to
// database.DB; the alias keeps adapter packages from importing database
// just to name their return type.
type SQL = database.DB
