package sync

import (
	"context"
	"errors"
	"strconv"

	"github.com/healthfair/clinicsync/internal/client/client"
	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/client/repositories/metadata"
	"github.com/healthfair/clinicsync/internal/common"
)

// SyncAll runs one full reconciliation cycle: pull every collection from the
// remote and merge it into the local store, then drain the mutation queue in
// FIFO order. The cycle is single-flight: a call made while another cycle is
// running returns immediately without doing anything. Failures never surface
// as errors, they land in record statuses and in the broadcast stream.
func (e *Engine) SyncAll(ctx context.Context) {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug(ctx, "sync already in progress, skipping")
		return
	}
	defer e.syncing.Store(false)

	if !e.monitor.Current() {
		e.setStatus(models.StatusOffline)
		e.broadcaster.Publish(models.StatusOffline)
		return
	}

	e.setStatus(models.StatusSyncing)
	e.broadcaster.Publish(models.StatusSyncing)

	clean := true

	for _, entityType := range syncedEntityTypes {
		if err := e.pullAndMerge(ctx, entityType); err != nil {
			e.logger.Error(ctx, "pull failed", "entity_type", entityType, "error", err)
			clean = false
			break
		}
	}

	if clean {
		if !e.drainQueue(ctx) {
			clean = false
		}
	}

	if !clean {
		e.setStatus(models.StatusError)
		e.broadcaster.Publish(models.StatusError)
		return
	}

	millis := strconv.FormatInt(e.now().UnixMilli(), 10)
	if err := e.metadata.Set(ctx, metadata.KeyLastSyncMillis, []byte(millis)); err != nil {
		e.logger.Error(ctx, "failed to persist last sync time", "error", err)
	}

	e.setStatus(models.StatusSynced)
	e.broadcaster.Publish(models.StatusSynced)
}

// pullAndMerge fetches the authoritative collection for entityType and
// merges it into the local store. Conflict policy is last-write-wins on
// the records' wall-clock modification times: a strictly newer local record
// keeps its payload and stays pending for the drain phase, otherwise the
// remote copy wins and the record is marked synced. Local-only tentative
// records are always kept.
func (e *Engine) pullAndMerge(ctx context.Context, entityType models.EntityType) error {
	remote, err := e.remote.List(ctx, entityType)
	if err != nil {
		return err
	}

	local := e.records.Load(ctx, entityType)
	localByID := make(map[string]int, len(local))
	for i := range local {
		localByID[local[i].ID] = i
	}

	merged := make([]models.Record, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(remote))

	for _, rr := range remote {
		seen[rr.ID] = struct{}{}

		idx, ok := localByID[rr.ID]
		if !ok {
			merged = append(merged, authoritativeToRecord(rr, entityType))
			continue
		}

		lr := local[idx]
		if lr.LastModified > rr.LastModified {
			// Local edit is newer: keep it, the drain phase pushes it.
			lr.SyncStatus = models.StatusPending
			merged = append(merged, lr)
			continue
		}
		merged = append(merged, authoritativeToRecord(rr, entityType))
	}

	for _, lr := range local {
		if _, ok := seen[lr.ID]; ok {
			continue
		}
		if lr.IsLocal {
			// Not yet created remotely, keep for the drain phase.
			merged = append(merged, lr)
			continue
		}
		// Known remotely before but absent now: the server dropped it.
		e.logger.Warn(ctx, "record removed remotely", "entity_type", entityType, "id", lr.ID)
	}

	return e.records.Save(ctx, entityType, merged)
}

// drainQueue replays queued mutations oldest first. Returns false when at
// least one entry failed this cycle.
func (e *Engine) drainQueue(ctx context.Context) bool {
	entries, err := e.queue.List(ctx)
	if err != nil {
		e.logger.Error(ctx, "failed to list mutation queue", "error", err)
		return false
	}

	ok := true
	renames := map[string]string{}
	for i := range entries {
		// A create replay earlier in this pass may have retargeted this
		// entry in the database; the listed copy still has the old id.
		if newID, renamed := renames[entries[i].RecordID]; renamed {
			entries[i].RecordID = newID
		}
		before := entries[i].RecordID
		if !e.replayEntry(ctx, &entries[i]) {
			ok = false
		}
		if after := entries[i].RecordID; after != before {
			renames[before] = after
		}
	}
	return ok
}

// replayEntry pushes one queued mutation to the remote. On success the
// entry is removed and the record marked synced; a create additionally
// swaps the tentative id for the authoritative one, in the store and in
// any later queue entries for the same record. On failure the retry count
// is bumped and, past the ceiling, the entry is dropped and the record
// parked in error state.
func (e *Engine) replayEntry(ctx context.Context, entry *models.QueueEntry) bool {
	e.markRecord(ctx, entry.EntityType, entry.RecordID, func(r *models.Record) {
		r.SyncStatus = models.StatusSyncing
	})

	var (
		result *client.AuthoritativeRecord
		err    error
	)

	switch entry.Operation {
	case models.OpCreate:
		result, err = e.remote.Create(ctx, entry.EntityType, entry.Payload)
	case models.OpUpdate:
		result, err = e.remote.Update(ctx, entry.EntityType, entry.RecordID, entry.Payload)
		if errors.Is(err, common.ErrorNotFound) && !e.createStillQueued(ctx, entry) {
			// The record is gone on the server and no queued create will
			// bring it back; replay as a create so the edit is not lost.
			result, err = e.remote.Create(ctx, entry.EntityType, entry.Payload)
		}
	default:
		e.logger.Warn(ctx, "dropping queue entry with unknown operation",
			"operation", entry.Operation, "record_id", entry.RecordID)
		e.removeEntry(ctx, entry)
		return true
	}

	if err != nil {
		return e.handleReplayFailure(ctx, entry, err)
	}

	if result != nil && result.ID != entry.RecordID {
		e.adoptAuthoritativeID(ctx, entry, result)
	} else {
		e.markRecord(ctx, entry.EntityType, entry.RecordID, func(r *models.Record) {
			r.SyncStatus = models.StatusSynced
			r.IsLocal = false
			if result != nil {
				r.Payload = result.Payload
				r.Version = result.Version
				r.LastModified = result.LastModified
			}
		})
	}

	e.removeEntry(ctx, entry)
	return true
}

// adoptAuthoritativeID rewrites a tentative record to the server-assigned
// identity and retargets any still-queued mutations for it.
func (e *Engine) adoptAuthoritativeID(ctx context.Context, entry *models.QueueEntry, result *client.AuthoritativeRecord) {
	oldID := entry.RecordID

	e.markRecord(ctx, entry.EntityType, oldID, func(r *models.Record) {
		r.ID = result.ID
		r.Payload = result.Payload
		r.Version = result.Version
		r.LastModified = result.LastModified
		r.SyncStatus = models.StatusSynced
		r.IsLocal = false
	})

	if err := e.queue.RewriteRecordID(ctx, oldID, result.ID); err != nil {
		e.logger.Error(ctx, "failed to retarget queued mutations",
			"old_id", oldID, "new_id", result.ID, "error", err)
	}
	// selfsame entry got rewritten too
	entry.RecordID = result.ID

	e.logger.Info(ctx, "record assigned authoritative id",
		"entity_type", entry.EntityType, "old_id", oldID, "new_id", result.ID)
}

// createStillQueued reports whether a create mutation for the same record
// is still waiting in the queue. While one is, an update the server does
// not recognize must keep retrying as an update: recreating the record here
// would leave the queued create to produce a duplicate on a later cycle.
// Errs on the side of retrying when the queue cannot be read.
func (e *Engine) createStillQueued(ctx context.Context, entry *models.QueueEntry) bool {
	entries, err := e.queue.List(ctx)
	if err != nil {
		e.logger.Error(ctx, "failed to list mutation queue", "error", err)
		return true
	}
	for _, qe := range entries {
		if qe.Seq != entry.Seq && qe.RecordID == entry.RecordID && qe.Operation == models.OpCreate {
			return true
		}
	}
	return false
}

func (e *Engine) handleReplayFailure(ctx context.Context, entry *models.QueueEntry, cause error) bool {
	entry.RetryCount++

	if entry.RetryCount > maxRetries {
		e.logger.Error(ctx, "dropping mutation after repeated failures",
			"record_id", entry.RecordID, "entity_type", entry.EntityType,
			"operation", entry.Operation, "attempts", entry.RetryCount, "error", cause)
		e.removeEntry(ctx, entry)
		e.markRecord(ctx, entry.EntityType, entry.RecordID, func(r *models.Record) {
			r.SyncStatus = models.StatusError
		})
		return false
	}

	e.logger.Warn(ctx, "mutation replay failed, will retry",
		"record_id", entry.RecordID, "entity_type", entry.EntityType,
		"retry_count", entry.RetryCount, "error", cause)
	if err := e.queue.SetRetryCount(ctx, entry.Seq, entry.RetryCount); err != nil {
		e.logger.Error(ctx, "failed to persist retry count", "seq", entry.Seq, "error", err)
	}
	e.markRecord(ctx, entry.EntityType, entry.RecordID, func(r *models.Record) {
		r.SyncStatus = models.StatusPending
	})
	return false
}

func (e *Engine) removeEntry(ctx context.Context, entry *models.QueueEntry) {
	if err := e.queue.RemoveEntry(ctx, entry.Seq); err != nil {
		e.logger.Error(ctx, "failed to remove queue entry", "seq", entry.Seq, "error", err)
	}
}

// markRecord applies mutate to the record with the given id and persists
// the collection. Missing records are ignored.
func (e *Engine) markRecord(ctx context.Context, entityType models.EntityType, id string, mutate func(*models.Record)) {
	collection := e.records.Load(ctx, entityType)
	for i := range collection {
		if collection[i].ID != id {
			continue
		}
		mutate(&collection[i])
		if err := e.records.Save(ctx, entityType, collection); err != nil {
			e.logger.Error(ctx, "failed to persist record state",
				"entity_type", entityType, "id", id, "error", err)
		}
		return
	}
}

func authoritativeToRecord(rr client.AuthoritativeRecord, entityType models.EntityType) models.Record {
	return models.Record{
		ID:           rr.ID,
		EntityType:   entityType,
		Payload:      rr.Payload,
		LastModified: rr.LastModified,
		SyncStatus:   models.StatusSynced,
		Version:      rr.Version,
		IsLocal:      false,
	}
}
