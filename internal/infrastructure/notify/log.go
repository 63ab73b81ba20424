// Package notify delivers lifecycle notifications. The log notifier is the
// default sink; richer channels plug in behind the same port.
package notify

import (
	"context"
	"log/slog"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.LifecycleEvent, c *domain.Classification) error {
	attrs := []any{
		"classification_id", event.ClassificationID,
		"action", string(event.Action),
		"occurred_at", event.OccurredAt,
	}
	if c != nil {
		attrs = append(attrs,
			"submitter_id", c.SubmitterID,
			"variety", c.PredictedVariety,
			"condition", string(c.Condition),
		)
	}
	n.logger.Info("classification_lifecycle_notification", attrs...)
	return nil
}
