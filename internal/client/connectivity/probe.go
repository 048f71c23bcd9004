package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/healthfair/clinicsync/internal/logging"
)

// Pinger is the probe used to decide reachability; the remote API client
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

// ProbeMonitor decides online/offline by periodically pinging the remote
// API. Platform network-change events are not available to a plain process,
// so reachability of the actual collaborator is the signal that matters.
type ProbeMonitor struct {
	pinger   Pinger
	interval time.Duration
	logger   logging.Logger

	mu        sync.Mutex
	online    bool
	callbacks []func(online bool)
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewProbeMonitor builds a monitor that probes at the given interval.
// The initial state is established synchronously with one probe so that
// callers constructing a sync engine see a meaningful Current().
func NewProbeMonitor(pinger Pinger, interval time.Duration, logger logging.Logger) *ProbeMonitor {
	m := &ProbeMonitor{
		pinger:   pinger,
		interval: interval,
		logger:   logger.With("component", "connectivity"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	m.online = pinger.Ping(ctx) == nil

	return m
}

func (m *ProbeMonitor) Current() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ProbeMonitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Start launches the probe loop. Stop or cancelling ctx ends it.
func (m *ProbeMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				probeCtx, probeCancel := context.WithTimeout(ctx, probeTimeout)
				err := m.pinger.Ping(probeCtx)
				probeCancel()
				m.transition(ctx, err == nil)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the probe loop and waits for it to finish.
func (m *ProbeMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *ProbeMonitor) transition(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	callbacks := make([]func(bool), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	m.logger.Info(ctx, "connectivity changed", "online", online)
	for _, fn := range callbacks {
		fn(online)
	}
}
