// Package notify defines the fire-and-forget visit-summary notifier invoked
// after a patient registration reaches the server. Real delivery (email, SMS)
// sits behind the interface; the default implementation only logs.
package notify

import (
	"context"

	"github.com/healthfair/clinicsync/internal/logging"
	"github.com/healthfair/clinicsync/internal/server/models"
)

// Notifier announces a newly registered patient. Implementations must not
// block the request path; failures are the implementation's problem.
type Notifier interface {
	PatientRegistered(ctx context.Context, record *models.Record)
}

// LogNotifier writes the notification to the structured log.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) PatientRegistered(ctx context.Context, record *models.Record) {
	n.logger.Info(ctx, "patient registered", "id", record.ID, "version", record.Version)
}
