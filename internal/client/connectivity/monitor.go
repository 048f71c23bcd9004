// Package connectivity tracks whether the remote API is reachable and
// notifies interested components of online/offline transitions.
package connectivity

// Monitor exposes the current network state synchronously and emits
// transition events. Implementations must invoke every registered callback
// on each transition, in registration order.
type Monitor interface {
	// Current reports whether the remote API is currently reachable.
	Current() bool

	// OnChange registers a callback fired on every online/offline
	// transition.
	OnChange(fn func(online bool))
}
