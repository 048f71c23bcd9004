package records

import (
	"context"

	"github.com/healthfair/clinicsync/internal/client/models"
)

// Repository is the durable record store: an ordered collection of
// sync-tagged records per entity type that survives process restarts.
type Repository interface {
	// Load returns all stored records for a type in storage (insertion)
	// order. It never fails: storage or decode problems are logged and the
	// result degrades to an empty slice so a corrupt cache cannot take the
	// application down.
	Load(ctx context.Context, entityType models.EntityType) []models.Record

	// Save replaces the whole collection for a type. Last writer wins;
	// callers serialize through the sync engine.
	Save(ctx context.Context, entityType models.EntityType, recs []models.Record) error

	// Clear wipes the collection for one type.
	Clear(ctx context.Context, entityType models.EntityType) error

	// ClearAll wipes every collection.
	ClearAll(ctx context.Context) error

	// Count returns the total number of stored records across all types.
	Count(ctx context.Context) (int, error)
}
