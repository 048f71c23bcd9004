// Package models defines the client-side data model: sync-tagged records,
// mutation queue entries, and the typed domain payloads stored inside them.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healthfair/clinicsync/internal/common"
)

// EntityType tags a record with the domain collection it belongs to.
type EntityType string

const (
	EntityPatient        EntityType = "patient"
	EntityVitals         EntityType = "vitals"
	EntityDoctor         EntityType = "doctor"
	EntityRecommendation EntityType = "recommendation"
)

// ValidEntityType reports whether t is one of the known entity types.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityPatient, EntityVitals, EntityDoctor, EntityRecommendation:
		return true
	}
	return false
}

// SyncStatus is the per-record (and engine-level) synchronization state.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
	StatusOffline SyncStatus = "offline"
)

// Record is a locally cached, sync-tagged domain record.
//
// While IsLocal is true the record carries a tentative id (common.
// TentativeIDPrefix) and its SyncStatus is never "synced"; the two flip
// together when the remote API confirms the record.
type Record struct {
	ID           string          `json:"id"`
	EntityType   EntityType      `json:"entity_type"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"` // epoch ms
	SyncStatus   SyncStatus      `json:"sync_status"`
	Version      int64           `json:"version"`
	IsLocal      bool            `json:"is_local"`
}

// IsTentativeID reports whether id was generated locally and has not yet
// been replaced by an authoritative server id.
func IsTentativeID(id string) bool {
	return strings.HasPrefix(id, common.TentativeIDPrefix)
}

// PayloadAs decodes a record's payload into the given domain type.
func PayloadAs[T any](r *Record) (T, error) {
	var v T
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", r.EntityType, err)
	}
	return v, nil
}

// Operation is a queued mutation kind.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// QueueEntry is one pending remote mutation. Seq is assigned by the queue
// repository and defines FIFO replay order.
type QueueEntry struct {
	Seq        int64           `json:"seq"`
	RecordID   string          `json:"record_id"`
	Operation  Operation       `json:"operation"`
	EntityType EntityType      `json:"entity_type"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  int64           `json:"timestamp"` // epoch ms at enqueue
	RetryCount int             `json:"retry_count"`
}
