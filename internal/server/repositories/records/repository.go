package records

import (
	"context"

	"github.com/healthfair/clinicsync/internal/server/models"
)

// Repository is the authoritative record store behind the intake API.
type Repository interface {
	// Create inserts a record with a fresh server-assigned state.
	Create(ctx context.Context, record *models.Record) error

	// Get returns one record, or common.ErrorNotFound.
	Get(ctx context.Context, entityType, id string) (*models.Record, error)

	// Update replaces the record's payload, bumping version and
	// last_modified. Returns common.ErrorNotFound when no row matches.
	Update(ctx context.Context, record *models.Record) error

	// List returns all records of a type ordered by last_modified.
	List(ctx context.Context, entityType string) ([]*models.Record, error)
}
