package metadata

import "context"

// Repository is a small durable key/value area for sync bookkeeping:
// the last successful sync timestamp and the offline-mode flag.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys.
const (
	KeyLastSyncMillis = "last_sync_ms"
	KeyOfflineMode    = "offline_mode"
)
