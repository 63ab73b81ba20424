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

type ReviewClassificationUseCase struct {
	repo    ports.ClassificationRepository
	audit   ports.AuditLog
	events  ports.EventPublisher
	monitor ports.AuditMonitor
}

func NewReviewClassificationUseCase(
	repo ports.ClassificationRepository,
	audit ports.AuditLog,
	events ports.EventPublisher,
	monitor ports.AuditMonitor,
) *ReviewClassificationUseCase {
	return &ReviewClassificationUseCase{
		repo:    repo,
		audit:   audit,
		events:  events,
		monitor: monitor,
	}
}

// Review finalizes a processed classification. The repository transition is
// conditional on the current state, so of two racing reviews exactly one
// succeeds and the other observes domain.ErrInvalidTransition.
func (uc *ReviewClassificationUseCase) Review(ctx context.Context, req ports.ReviewRequest) (*domain.Classification, error) {
	if strings.TrimSpace(req.ClassificationID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "review classification", errors.New("classification id is required"))
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "review classification", errors.New("actor id is required"))
	}

	target := domain.StateRejected
	action := domain.ActionRejected
	if req.Approve {
		target = domain.StateValidated
		action = domain.ActionValidated
	}

	before, err := uc.repo.GetByID(ctx, req.ClassificationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := uc.repo.Transition(ctx, req.ClassificationID, req.ActorID, target, req.Notes, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.AuditEntry{
		ID:               uuid.NewString(),
		ClassificationID: updated.ID,
		ActorID:          req.ActorID,
		Action:           action,
		Notes:            req.Notes,
		BeforeSnapshot:   domain.StateSnapshot(before),
		AfterSnapshot:    domain.StateSnapshot(updated),
		Metadata:         req.Metadata,
		OccurredAt:       now,
	}
	if err := uc.audit.Append(ctx, entry); err != nil {
		uc.flagAuditGap(updated.ID, action, err)
		return updated, domain.WrapError(domain.ErrAuditTrailIncomplete, "append review audit entry", err)
	}

	uc.publish(ctx, domain.LifecycleEvent{
		ClassificationID: updated.ID,
		Action:           action,
		OccurredAt:       now,
	})

	return updated, nil
}

func (uc *ReviewClassificationUseCase) flagAuditGap(classificationID string, action domain.AuditAction, err error) {
	logAuditGap(classificationID, action, err)
	if uc.monitor != nil {
		uc.monitor.AuditAppendFailed(action)
	}
}

func (uc *ReviewClassificationUseCase) publish(ctx context.Context, event domain.LifecycleEvent) {
	publishLifecycleEvent(ctx, uc.events, event)
}
