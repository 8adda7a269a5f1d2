// Package pg provides PostgreSQL connection setup and schema migration.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/pressly/goose/v3"
)

// Config holds Postgres connection settings.
type Config struct {
	ConnectionURL  string        `env:"DATABASE_URL,required"`
	MaxOpenConns   int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns   int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	RetryAttempts  int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Connect opens a pool and verifies connectivity, retrying transient
// failures so a database that is still starting does not kill the app.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	attempts := max(cfg.RetryAttempts, 1)
	var pingErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = db.Close()
				return nil, fmt.Errorf("postgres not reachable: %w", pingErr)
			case <-time.After(cfg.RetryInterval):
			}
		}
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("postgres not reachable after %d attempts: %w", attempts, pingErr)
}

// Migrate applies all pending goose migrations from fsys.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
