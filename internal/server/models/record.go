// Package models defines the server-side record shape shared by the
// repositories and the HTTP layer.
package models

import "encoding/json"

// Record is an authoritative intake record. IDs are server-assigned and
// permanent; LastModified is wall-clock epoch milliseconds.
type Record struct {
	ID           string          `json:"id"`
	EntityType   string          `json:"entity_type"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"`
	Version      int64           `json:"version"`
}
