package queue

import (
	"context"
	"fmt"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). The autoincrement seq column provides FIFO ordering.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, entry *models.QueueEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO mutation_queue (record_id, operation, entity_type, payload, ts, retry_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RecordID, string(entry.Operation), string(entry.EntityType),
		[]byte(entry.Payload), entry.Timestamp, entry.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read queue seq: %w", err)
	}
	entry.Seq = seq
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, record_id, operation, entity_type, payload, ts, retry_count
		FROM mutation_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutation queue: %w", err)
	}
	defer rows.Close()

	var result []models.QueueEntry
	for rows.Next() {
		var item models.QueueEntry
		var payload []byte
		if err := rows.Scan(&item.Seq, &item.RecordID, &item.Operation,
			&item.EntityType, &payload, &item.Timestamp, &item.RetryCount); err != nil {
			return nil, err
		}
		item.Payload = payload
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, recordID string, entityType models.EntityType) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mutation_queue WHERE record_id = ? AND entity_type = ?`,
		recordID, string(entityType))
	if err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveEntry(ctx context.Context, seq int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mutation_queue WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("failed to remove queue entry %d: %w", seq, err)
	}
	return nil
}

func (r *SQLiteRepository) SetRetryCount(ctx context.Context, seq int64, count int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mutation_queue SET retry_count = ? WHERE seq = ?`, count, seq)
	if err != nil {
		return fmt.Errorf("failed to update retry count: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RewriteRecordID(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mutation_queue SET record_id = ? WHERE record_id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to rewrite queue record id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutation_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mutation_queue`); err != nil {
		return fmt.Errorf("failed to clear mutation queue: %w", err)
	}
	return nil
}
