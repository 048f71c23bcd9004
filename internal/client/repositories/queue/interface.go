package queue

import (
	"context"

	"github.com/healthfair/clinicsync/internal/client/models"
)

// Repository is the durable mutation queue: an ordered log of pending
// remote operations, shared across entity types.
type Repository interface {
	// Enqueue appends the entry and fills in its Seq.
	Enqueue(ctx context.Context, entry *models.QueueEntry) error

	// List returns all entries in enqueue order.
	List(ctx context.Context) ([]models.QueueEntry, error)

	// Remove deletes all entries matching both record id and entity type.
	// Removing a missing entry is not an error.
	Remove(ctx context.Context, recordID string, entityType models.EntityType) error

	// RemoveEntry deletes a single entry by its sequence number. Used by
	// queue drain so removing one replayed mutation cannot drop a later
	// entry queued for the same record.
	RemoveEntry(ctx context.Context, seq int64) error

	// SetRetryCount persists the failed-attempt count of one entry.
	SetRetryCount(ctx context.Context, seq int64, count int) error

	// RewriteRecordID retargets queued entries from a tentative id to the
	// authoritative id assigned by the remote on create.
	RewriteRecordID(ctx context.Context, oldID, newID string) error

	// Len returns the number of queued entries.
	Len(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
