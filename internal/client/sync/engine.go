// Package sync implements the offline-first reconciliation core: local
// mutations are persisted and queued immediately, pushed to the remote API
// when reachable, and fully reconciled (pull, merge, queue drain) on
// connectivity transitions or on demand.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/healthfair/clinicsync/internal/client/client"
	"github.com/healthfair/clinicsync/internal/client/connectivity"
	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/client/repositories/metadata"
	"github.com/healthfair/clinicsync/internal/client/repositories/queue"
	"github.com/healthfair/clinicsync/internal/client/repositories/records"
	"github.com/healthfair/clinicsync/internal/client/status"
	"github.com/healthfair/clinicsync/internal/common"
	"github.com/healthfair/clinicsync/internal/logging"
)

// maxRetries is the replay retry ceiling: an entry that has failed more
// than this many times is dropped and its record parked in error state.
const maxRetries = 3

// syncedEntityTypes are the collections reconciled by a full cycle.
var syncedEntityTypes = []models.EntityType{
	models.EntityPatient,
	models.EntityVitals,
	models.EntityDoctor,
	models.EntityRecommendation,
}

// Snapshot is the pull-based counterpart to status events.
type Snapshot struct {
	LocalRecordCount int   `json:"local_record_count"`
	QueueLength      int   `json:"queue_length"`
	LastSyncMillis   int64 `json:"last_sync_ms"`
}

// Engine is the single authority for moving data between the local store
// and the remote API. All record mutation goes through it.
type Engine struct {
	records     records.Repository
	queue       queue.Repository
	metadata    metadata.Repository
	remote      client.Client
	monitor     connectivity.Monitor
	broadcaster *status.Broadcaster
	logger      logging.Logger

	// seams for tests
	now   func() time.Time
	newID func() string

	syncing atomic.Bool // single-flight guard for SyncAll

	mu     gosync.Mutex
	status models.SyncStatus
}

// NewEngine wires an engine over the given collaborators and registers it
// on the connectivity monitor. The initial engine status is pending, or
// offline when the monitor reports no network. When the previous session
// is recorded as having ended offline and the network is back, the engine
// runs a reconciliation cycle immediately.
func NewEngine(
	repos *client.Repositories,
	remote client.Client,
	monitor connectivity.Monitor,
	broadcaster *status.Broadcaster,
	logger logging.Logger,
) *Engine {
	e := &Engine{
		records:     repos.Records,
		queue:       repos.Queue,
		metadata:    repos.Metadata,
		remote:      remote,
		monitor:     monitor,
		broadcaster: broadcaster,
		logger:      logger.With("component", "sync"),
		now:         time.Now,
		newID:       func() string { return common.TentativeIDPrefix + uuid.NewString() },
		status:      models.StatusPending,
	}

	ctx := context.Background()
	switch {
	case !monitor.Current():
		e.setStatus(models.StatusOffline)
		e.persistOfflineFlag(ctx, true)
	case e.offlineFlag(ctx):
		// The previous session shut down offline, possibly with queued
		// mutations; reconcile now instead of waiting for the next timer.
		e.logger.Info(ctx, "previous session ended offline, reconciling")
		e.persistOfflineFlag(ctx, false)
		e.SyncAll(ctx)
	}

	monitor.OnChange(e.onConnectivityChange)

	return e
}

// Status returns the engine-level sync status.
func (e *Engine) Status() models.SyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot reports local record count, queue length and the last
// successful sync timestamp.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	count, err := e.records.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	qlen, err := e.queue.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &Snapshot{
		LocalRecordCount: count,
		QueueLength:      qlen,
		LastSyncMillis:   e.lastSyncMillis(ctx),
	}, nil
}

// ListRecords returns the locally stored collection for entityType in
// storage order.
func (e *Engine) ListRecords(ctx context.Context, entityType models.EntityType) ([]models.Record, error) {
	if !models.ValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEntityType, entityType)
	}
	return e.records.Load(ctx, entityType), nil
}

// CreateRecord writes a tentative record, queues its create mutation, and,
// when online, immediately attempts a single-record push. The returned
// record always carries the tentative id; callers needing the authoritative
// id must re-read after sync.
func (e *Engine) CreateRecord(ctx context.Context, entityType models.EntityType, payload any) (*models.Record, error) {
	if !models.ValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEntityType, entityType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	online := e.monitor.Current()
	nowMillis := e.now().UnixMilli()

	rec := models.Record{
		ID:           e.newID(),
		EntityType:   entityType,
		Payload:      raw,
		LastModified: nowMillis,
		SyncStatus:   mutationStatus(online),
		Version:      1,
		IsLocal:      true,
	}

	collection := e.records.Load(ctx, entityType)
	collection = append(collection, rec)
	if err := e.records.Save(ctx, entityType, collection); err != nil {
		return nil, err
	}

	entry := &models.QueueEntry{
		RecordID:   rec.ID,
		Operation:  models.OpCreate,
		EntityType: entityType,
		Payload:    raw,
		Timestamp:  nowMillis,
	}
	if err := e.queue.Enqueue(ctx, entry); err != nil {
		return nil, err
	}

	if online {
		// Best-effort fast path: a failed push leaves the record queued
		// and never fails the create itself.
		e.replayEntry(ctx, entry)
	}

	returned := rec
	return &returned, nil
}

// UpdateRecord merges partial into an existing record's payload, bumps its
// version, queues an update mutation and opportunistically pushes it.
// Returns common.ErrorNotFound when no local record matches id.
func (e *Engine) UpdateRecord(ctx context.Context, entityType models.EntityType, id string, partial map[string]any) (*models.Record, error) {
	if !models.ValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEntityType, entityType)
	}

	collection := e.records.Load(ctx, entityType)
	idx := -1
	for i := range collection {
		if collection[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s record %q", common.ErrorNotFound, entityType, id)
	}

	merged, err := mergePayload(collection[idx].Payload, partial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}

	online := e.monitor.Current()
	nowMillis := e.now().UnixMilli()

	collection[idx].Payload = merged
	collection[idx].Version++
	collection[idx].LastModified = nowMillis
	collection[idx].SyncStatus = mutationStatus(online)

	if err := e.records.Save(ctx, entityType, collection); err != nil {
		return nil, err
	}

	entry := &models.QueueEntry{
		RecordID:   id,
		Operation:  models.OpUpdate,
		EntityType: entityType,
		Payload:    merged,
		Timestamp:  nowMillis,
	}
	if err := e.queue.Enqueue(ctx, entry); err != nil {
		return nil, err
	}

	if online {
		e.replayEntry(ctx, entry)
	}

	updated := collection[idx]
	return &updated, nil
}

// Close releases the remote client. The engine itself holds no goroutines.
func (e *Engine) Close() error {
	return e.remote.Close()
}

// ClearAll wipes the record store, the mutation queue and sync metadata.
// Recovery/testing escape hatch, not part of normal operation.
func (e *Engine) ClearAll(ctx context.Context) error {
	if err := e.records.ClearAll(ctx); err != nil {
		return err
	}
	if err := e.queue.Clear(ctx); err != nil {
		return err
	}
	return e.metadata.Clear(ctx)
}

func (e *Engine) onConnectivityChange(online bool) {
	ctx := context.Background()
	e.persistOfflineFlag(ctx, !online)

	if !online {
		e.setStatus(models.StatusOffline)
		e.broadcaster.Publish(models.StatusOffline)
		return
	}

	e.logger.Info(ctx, "back online, reconciling")
	e.SyncAll(ctx)
}

func (e *Engine) persistOfflineFlag(ctx context.Context, offline bool) {
	value := []byte("0")
	if offline {
		value = []byte("1")
	}
	if err := e.metadata.Set(ctx, metadata.KeyOfflineMode, value); err != nil {
		e.logger.Error(ctx, "failed to persist offline flag", "error", err)
	}
}

func (e *Engine) offlineFlag(ctx context.Context) bool {
	v, err := e.metadata.Get(ctx, metadata.KeyOfflineMode)
	if err != nil || v == nil {
		return false
	}
	return string(v) == "1"
}

func (e *Engine) setStatus(st models.SyncStatus) {
	e.mu.Lock()
	e.status = st
	e.mu.Unlock()
}

func (e *Engine) lastSyncMillis(ctx context.Context) int64 {
	v, err := e.metadata.Get(ctx, metadata.KeyLastSyncMillis)
	if err != nil || v == nil {
		return 0
	}
	millis, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0
	}
	return millis
}

// mutationStatus tags a fresh local mutation: pending when the mutation
// will be tried against the remote, offline when there is no network.
func mutationStatus(online bool) models.SyncStatus {
	if online {
		return models.StatusPending
	}
	return models.StatusOffline
}

// mergePayload overlays partial onto the stored JSON object.
func mergePayload(existing json.RawMessage, partial map[string]any) (json.RawMessage, error) {
	base := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &base); err != nil {
			return nil, err
		}
	}
	for k, v := range partial {
		base[k] = v
	}
	return json.Marshal(base)
}
