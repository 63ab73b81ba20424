package ports

import (
	"context"
	"io"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

// ClassificationRepository persists classification records and enforces the
// conditional state transition.
type ClassificationRepository interface {
	Create(ctx context.Context, c *domain.Classification) error
	GetByID(ctx context.Context, id string) (*domain.Classification, error)
	List(ctx context.Context, filter domain.Filter, page, pageSize int) ([]domain.Classification, error)
	Count(ctx context.Context, filter domain.Filter) (int, error)
	// Transition applies processed -> target atomically; a record that is
	// already terminal yields domain.ErrInvalidTransition.
	Transition(ctx context.Context, id, actor string, target domain.State, notes string, at time.Time) (*domain.Classification, error)
}

// AuditLog is the append-only traceability ledger. No update or delete is
// exposed; entries are immutable once written.
type AuditLog interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	HistoryFor(ctx context.Context, classificationID string) ([]domain.AuditEntry, error)
}

// StatsReader answers read-only aggregation queries over the store.
type StatsReader interface {
	ConfidenceSummary(ctx context.Context, filter domain.Filter) (domain.ConfidenceSummary, error)
	CountByVariety(ctx context.Context, filter domain.Filter) ([]domain.VarietyCount, error)
	CountBySubmitter(ctx context.Context, filter domain.Filter) ([]domain.SubmitterCount, error)
	CountByDay(ctx context.Context, filter domain.Filter, windowDays int) ([]domain.DailyCount, error)
	CountByCondition(ctx context.Context, filter domain.Filter) ([]domain.ConditionCount, error)
	CountByVarietyAndCondition(ctx context.Context, filter domain.Filter) ([]domain.VarietyConditionCount, error)
}

// VarietyCatalog is read-only reference data owned externally.
type VarietyCatalog interface {
	ActiveByCommonName(ctx context.Context, commonName string) (*domain.Variety, error)
	ListActive(ctx context.Context) ([]domain.Variety, error)
}

// VarietyClassifier wraps the external model: image bytes in, prediction out.
// It holds no state the core cares about.
type VarietyClassifier interface {
	Predict(ctx context.Context, image io.Reader) (domain.Prediction, error)
}

// ImageStore keeps the uploaded image artifacts; classifications hold only
// the returned reference.
type ImageStore interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// EventPublisher emits lifecycle events for downstream collaborators.
type EventPublisher interface {
	PublishLifecycleEvent(ctx context.Context, event domain.LifecycleEvent) error
}

// EventSubscriber consumes lifecycle events (worker side).
type EventSubscriber interface {
	SubscribeLifecycleEvents(ctx context.Context, handler func(context.Context, domain.LifecycleEvent) error) error
}

// ReportRenderer turns a filtered dataset plus its statistics into a
// downloadable artifact.
type ReportRenderer interface {
	Render(ctx context.Context, items []domain.Classification, stats *domain.Statistics) (*domain.Report, error)
}

// Notifier informs interested parties about a lifecycle event. Delivery
// mechanics (email etc.) live outside the core.
type Notifier interface {
	Notify(ctx context.Context, event domain.LifecycleEvent, c *domain.Classification) error
}

// AuditMonitor surfaces partial audit-write failures to operators.
type AuditMonitor interface {
	AuditAppendFailed(action domain.AuditAction)
}
