package status

import (
	"io"
	"log/slog"
	"testing"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBroadcaster() *Broadcaster {
	return NewBroadcaster(logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	b := newBroadcaster()

	var got1, got2 []models.SyncStatus
	b.Subscribe(func(st models.SyncStatus) { got1 = append(got1, st) })
	b.Subscribe(func(st models.SyncStatus) { got2 = append(got2, st) })

	b.Publish(models.StatusSyncing)
	b.Publish(models.StatusSynced)

	want := []models.SyncStatus{models.StatusSyncing, models.StatusSynced}
	assert.Equal(t, want, got1)
	assert.Equal(t, want, got2)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := newBroadcaster()

	var got []models.SyncStatus
	unsub := b.Subscribe(func(st models.SyncStatus) { got = append(got, st) })

	b.Publish(models.StatusSyncing)
	unsub()
	b.Publish(models.StatusSynced)

	require.Len(t, got, 1)
	assert.Equal(t, models.StatusSyncing, got[0])
}

func TestPublish_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	b := newBroadcaster()

	var got []models.SyncStatus
	b.Subscribe(func(models.SyncStatus) { panic("broken ui") })
	b.Subscribe(func(st models.SyncStatus) { got = append(got, st) })

	require.NotPanics(t, func() { b.Publish(models.StatusError) })
	assert.Equal(t, []models.SyncStatus{models.StatusError}, got)
}

func TestPublish_NoSubscribers(t *testing.T) {
	b := newBroadcaster()
	require.NotPanics(t, func() { b.Publish(models.StatusOffline) })
}
