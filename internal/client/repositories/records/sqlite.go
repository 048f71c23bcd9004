package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/dbx"
	"github.com/healthfair/clinicsync/internal/logging"
)

// SQLiteRepository implements Repository over the local intake database.
// It holds *sql.DB (not DBTX) because Save needs its own transaction.
type SQLiteRepository struct {
	db     *sql.DB
	logger logging.Logger
}

func NewSQLiteRepository(db *sql.DB, logger logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: logger.With("component", "records")}
}

func (r *SQLiteRepository) Load(ctx context.Context, entityType models.EntityType) []models.Record {
	query := `SELECT id, entity_type, payload, last_modified, sync_status, version, is_local
		FROM records WHERE entity_type = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		// Degrade to an empty collection; the diagnostic makes the silent
		// data loss observable to operators.
		r.logger.Error(ctx, "record store degraded to empty collection",
			"entity_type", entityType, "error", err)
		return []models.Record{}
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		var item models.Record
		var payload []byte
		var isLocal int
		if err := rows.Scan(&item.ID, &item.EntityType, &payload,
			&item.LastModified, &item.SyncStatus, &item.Version, &isLocal); err != nil {
			r.logger.Error(ctx, "skipping unreadable record row",
				"entity_type", entityType, "error", err)
			continue
		}
		if !json.Valid(payload) {
			r.logger.Error(ctx, "skipping record with corrupt payload",
				"entity_type", entityType, "id", item.ID)
			continue
		}
		item.Payload = json.RawMessage(payload)
		item.IsLocal = isLocal != 0
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error(ctx, "record store degraded to empty collection",
			"entity_type", entityType, "error", err)
		return []models.Record{}
	}

	return result
}

func (r *SQLiteRepository) Save(ctx context.Context, entityType models.EntityType, recs []models.Record) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE entity_type = ?`, string(entityType)); err != nil {
			return err
		}
		for _, rec := range recs {
			isLocal := 0
			if rec.IsLocal {
				isLocal = 1
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO records (id, entity_type, payload, last_modified, sync_status, version, is_local)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, string(entityType), []byte(rec.Payload),
				rec.LastModified, string(rec.SyncStatus), rec.Version, isLocal)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s records: %w", entityType, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, entityType models.EntityType) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE entity_type = ?`, string(entityType)); err != nil {
		return fmt.Errorf("failed to clear %s records: %w", entityType, err)
	}
	return nil
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}
