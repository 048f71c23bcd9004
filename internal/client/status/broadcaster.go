// Package status lets observers (UI layers) follow sync state transitions
// without polling the engine.
package status

import (
	"context"
	"sync"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/logging"
)

// Broadcaster delivers sync status changes to subscribers synchronously and
// in process. Delivery is best-effort: a panicking subscriber is recovered
// and logged, and the remaining subscribers still run.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(models.SyncStatus)
	logger logging.Logger
}

func NewBroadcaster(logger logging.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]func(models.SyncStatus)),
		logger: logger.With("component", "status"),
	}
}

// Subscribe registers fn and returns a function that removes the
// subscription.
func (b *Broadcaster) Subscribe(fn func(models.SyncStatus)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish invokes every subscriber with the new status.
func (b *Broadcaster) Publish(st models.SyncStatus) {
	b.mu.Lock()
	fns := make([]func(models.SyncStatus), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		b.notify(fn, st)
	}
}

func (b *Broadcaster) notify(fn func(models.SyncStatus), st models.SyncStatus) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(context.Background(), "status subscriber panicked", "panic", r)
		}
	}()
	fn(st)
}
