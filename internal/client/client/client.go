// Package client defines the remote API contract the sync engine depends
// on, its HTTP implementation, and local database bootstrap for the intake
// workstation.
package client

import (
	"context"
	"encoding/json"

	"github.com/healthfair/clinicsync/internal/client/models"
)

// AuthoritativeRecord is a record as confirmed by the remote API. Its ID is
// permanent and never carries the tentative prefix.
type AuthoritativeRecord struct {
	ID           string          `json:"id"`
	EntityType   string          `json:"entity_type"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"`
	Version      int64           `json:"version"`
}

// PresignedUpload is the server's answer to a document presign request.
type PresignedUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Client is the remote API contract. Implementations must apply bounded
// timeouts; calls made while offline fail with common.ErrUnavailable.
type Client interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, entityType models.EntityType, payload json.RawMessage) (*AuthoritativeRecord, error)
	List(ctx context.Context, entityType models.EntityType) ([]AuthoritativeRecord, error)
	Update(ctx context.Context, entityType models.EntityType, id string, payload json.RawMessage) (*AuthoritativeRecord, error)
	PresignDocument(ctx context.Context, patientID, fileName string) (*PresignedUpload, error)
	Close() error
}
