package ports

import (
	"context"
	"io"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

// SubmitRequest carries everything needed to turn an uploaded image into a
// classification record.
type SubmitRequest struct {
	SubmitterID string
	Filename    string
	Image       io.Reader
	Timeout     time.Duration
	Metadata    domain.RequestMetadata
}

// ReviewRequest finalizes a processed classification.
type ReviewRequest struct {
	ClassificationID string
	ActorID          string
	Approve          bool
	Notes            string
	Metadata         domain.RequestMetadata
}

// ClassificationSubmitter is the inbound contract for classification
// submission. A domain.ErrAuditTrailIncomplete error may accompany a
// non-nil classification when the audit append failed after the write.
type ClassificationSubmitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Classification, error)
}

// ClassificationReviewer validates or rejects a processed classification.
type ClassificationReviewer interface {
	Review(ctx context.Context, req ReviewRequest) (*domain.Classification, error)
}

// ClassificationQuerier is the inbound read model.
type ClassificationQuerier interface {
	GetByID(ctx context.Context, id string) (*domain.Classification, error)
	Query(ctx context.Context, filter domain.Filter, page, pageSize int) (*domain.ClassificationPage, error)
}

// StatisticsProvider bundles every aggregation over one filter.
type StatisticsProvider interface {
	Statistics(ctx context.Context, filter domain.Filter) (*domain.Statistics, error)
}

// AuditTrailProvider reads the ledger for one classification.
type AuditTrailProvider interface {
	Trail(ctx context.Context, classificationID string) ([]domain.AuditEntry, error)
}

// ReportExporter renders a filtered export and records it in the ledger.
type ReportExporter interface {
	Export(ctx context.Context, filter domain.Filter, actorID string, metadata domain.RequestMetadata) (*domain.Report, error)
}
