package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/healthfair/clinicsync/internal/client/migrations"
	"github.com/healthfair/clinicsync/internal/client/repositories/metadata"
	"github.com/healthfair/clinicsync/internal/client/repositories/queue"
	"github.com/healthfair/clinicsync/internal/client/repositories/records"
	"github.com/healthfair/clinicsync/internal/logging"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the local persistence layer handed to the sync
// engine.
type Repositories struct {
	Records  records.Repository
	Queue    queue.Repository
	Metadata metadata.Repository
	DB       *sql.DB
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local intake database, migrates it, and wires the
// repositories.
func InitDatabase(ctx context.Context, dsn string, logger logging.Logger) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	repos := &Repositories{
		Records:  records.NewSQLiteRepository(db, logger),
		Queue:    queue.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}
	return repos, nil
}
