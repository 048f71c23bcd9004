package connectivity

import "sync"

// StaticMonitor is a Monitor whose state is driven manually. Tests use it to
// simulate transitions deterministically; callbacks fire synchronously from
// SetOnline.
type StaticMonitor struct {
	mu        sync.Mutex
	online    bool
	callbacks []func(online bool)
}

func NewStaticMonitor(online bool) *StaticMonitor {
	return &StaticMonitor{online: online}
}

func (m *StaticMonitor) Current() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *StaticMonitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// SetOnline flips the state and fires callbacks when it actually changes.
func (m *StaticMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	callbacks := make([]func(bool), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(online)
	}
}
