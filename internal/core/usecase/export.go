package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

// exportRowLimit caps one export, matching the original report page cap.
const exportRowLimit = 1000

type ExportReportUseCase struct {
	repo     ports.ClassificationRepository
	stats    ports.StatisticsProvider
	renderer ports.ReportRenderer
	audit    ports.AuditLog
	monitor  ports.AuditMonitor
}

func NewExportReportUseCase(
	repo ports.ClassificationRepository,
	stats ports.StatisticsProvider,
	renderer ports.ReportRenderer,
	audit ports.AuditLog,
	monitor ports.AuditMonitor,
) *ExportReportUseCase {
	return &ExportReportUseCase{
		repo:     repo,
		stats:    stats,
		renderer: renderer,
		audit:    audit,
		monitor:  monitor,
	}
}

// Export renders the filtered dataset plus statistics and appends one
// exported audit entry per included classification. Audit append failures
// are flagged for operators but never fail the export itself.
func (uc *ExportReportUseCase) Export(ctx context.Context, filter domain.Filter, actorID string, metadata domain.RequestMetadata) (*domain.Report, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export report", errors.New("actor id is required"))
	}

	items, err := uc.repo.List(ctx, filter, 1, exportRowLimit)
	if err != nil {
		return nil, err
	}
	stats, err := uc.stats.Statistics(ctx, filter)
	if err != nil {
		return nil, err
	}

	report, err := uc.renderer.Render(ctx, items, stats)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range items {
		entry := &domain.AuditEntry{
			ID:               uuid.NewString(),
			ClassificationID: items[i].ID,
			ActorID:          actorID,
			Action:           domain.ActionExported,
			Notes:            "included in report export " + report.Filename,
			Metadata:         metadata,
			OccurredAt:       now,
		}
		if err := uc.audit.Append(ctx, entry); err != nil {
			logAuditGap(items[i].ID, domain.ActionExported, err)
			if uc.monitor != nil {
				uc.monitor.AuditAppendFailed(domain.ActionExported)
			}
		}
	}

	return report, nil
}
