package usecase

import (
	"context"
	"log/slog"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

// logAuditGap records a partial audit-write failure at elevated severity so
// operators can reconcile the ledger; the primary record is kept.
func logAuditGap(classificationID string, action domain.AuditAction, err error) {
	slog.Error("audit_append_failed",
		"classification_id", classificationID,
		"action", string(action),
		"error", err,
	)
}

// publishLifecycleEvent is best-effort: event delivery never fails the
// originating operation.
func publishLifecycleEvent(ctx context.Context, events ports.EventPublisher, event domain.LifecycleEvent) {
	if events == nil {
		return
	}
	if err := events.PublishLifecycleEvent(ctx, event); err != nil {
		slog.Warn("lifecycle_event_publish_failed",
			"classification_id", event.ClassificationID,
			"action", string(event.Action),
			"error", err,
		)
	}
}
