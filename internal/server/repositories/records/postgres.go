// Package records provides the PostgreSQL-backed repository for
// authoritative intake records.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/healthfair/clinicsync/internal/common"
	"github.com/healthfair/clinicsync/internal/dbx"
	"github.com/healthfair/clinicsync/internal/server/models"
)

// PostgresRepository implements record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO records (entity_type, id, payload, last_modified, version)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.EntityType, record.ID, []byte(record.Payload), record.LastModified, record.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, entityType, id string) (*models.Record, error) {
	query := `
		SELECT entity_type, id, payload, last_modified, version FROM records
		WHERE entity_type = $1 AND id = $2
	`
	var item models.Record
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, entityType, id).Scan(
		&item.EntityType, &item.ID, &payload, &item.LastModified, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	item.Payload = payload
	return &item, nil
}

func (r *PostgresRepository) Update(ctx context.Context, record *models.Record) error {
	query := `
		UPDATE records
		SET payload = $3, last_modified = $4, version = version + 1
		WHERE entity_type = $1 AND id = $2
		RETURNING version
	`
	err := r.db.QueryRowContext(ctx, query,
		record.EntityType, record.ID, []byte(record.Payload), record.LastModified).Scan(&record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, entityType string) ([]*models.Record, error) {
	query := `
		SELECT entity_type, id, payload, last_modified, version FROM records
		WHERE entity_type = $1
		ORDER BY last_modified, id
	`
	rows, err := r.db.QueryContext(ctx, query, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		var item models.Record
		var payload []byte
		if err := rows.Scan(&item.EntityType, &item.ID, &payload, &item.LastModified, &item.Version); err != nil {
			return nil, err
		}
		item.Payload = payload
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
