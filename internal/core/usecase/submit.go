package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

// maxImageBytes bounds the upload buffer; the model rejects larger inputs anyway.
const maxImageBytes = 10 << 20

const defaultPredictTimeout = 15 * time.Second

type SubmitClassificationUseCase struct {
	repo       ports.ClassificationRepository
	audit      ports.AuditLog
	catalog    ports.VarietyCatalog
	classifier ports.VarietyClassifier
	images     ports.ImageStore
	events     ports.EventPublisher
	monitor    ports.AuditMonitor
}

func NewSubmitClassificationUseCase(
	repo ports.ClassificationRepository,
	audit ports.AuditLog,
	catalog ports.VarietyCatalog,
	classifier ports.VarietyClassifier,
	images ports.ImageStore,
	events ports.EventPublisher,
	monitor ports.AuditMonitor,
) *SubmitClassificationUseCase {
	return &SubmitClassificationUseCase{
		repo:       repo,
		audit:      audit,
		catalog:    catalog,
		classifier: classifier,
		images:     images,
		events:     events,
		monitor:    monitor,
	}
}

// Submit runs the prediction under the caller timeout, derives the condition,
// persists the record and appends the created audit entry. A timed-out or
// rejected prediction leaves no trace. When the audit append fails after a
// successful write, the created classification is returned together with a
// domain.ErrAuditTrailIncomplete error.
func (uc *SubmitClassificationUseCase) Submit(ctx context.Context, req ports.SubmitRequest) (*domain.Classification, error) {
	if strings.TrimSpace(req.SubmitterID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit classification", errors.New("submitter id is required"))
	}
	if req.Image == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit classification", errors.New("image is required"))
	}

	image, err := io.ReadAll(io.LimitReader(req.Image, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(image) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit classification", errors.New("image is empty"))
	}
	if len(image) > maxImageBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit classification", fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}

	prediction, err := uc.predict(ctx, req.Timeout, image)
	if err != nil {
		return nil, err
	}

	condition, err := domain.DecideCondition(prediction.Confidence)
	if err != nil {
		return nil, err
	}

	variety, err := uc.catalog.ActiveByCommonName(ctx, prediction.Variety)
	if err != nil {
		return nil, err
	}

	imageRef, err := uc.images.Save(ctx, storageKey(req.Filename), bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	now := time.Now().UTC()
	classification := &domain.Classification{
		ID:                  uuid.NewString(),
		CorrelationID:       fmt.Sprintf("CLS_%d", now.UnixMilli()),
		SubmitterID:         req.SubmitterID,
		ImageRef:            imageRef,
		PredictedVariety:    variety.CommonName,
		Confidence:          prediction.Confidence,
		Condition:           condition,
		Alternatives:        domain.NormalizeAlternatives(variety.CommonName, prediction.Alternatives),
		State:               domain.StateProcessed,
		ProcessingLatencyMs: prediction.LatencyMs,
		ModelMetadata:       prediction.ModelMetadata,
		ClassifiedAt:        now,
	}

	if err := uc.repo.Create(ctx, classification); err != nil {
		return nil, err
	}

	entry := &domain.AuditEntry{
		ID:               uuid.NewString(),
		ClassificationID: classification.ID,
		ActorID:          req.SubmitterID,
		Action:           domain.ActionCreated,
		Notes:            fmt.Sprintf("automatic classification: %s at %.0f%% confidence", variety.CommonName, prediction.Confidence*100),
		AfterSnapshot:    domain.StateSnapshot(classification),
		Metadata:         req.Metadata,
		OccurredAt:       now,
	}
	if err := uc.audit.Append(ctx, entry); err != nil {
		uc.flagAuditGap(classification.ID, domain.ActionCreated, err)
		return classification, domain.WrapError(domain.ErrAuditTrailIncomplete, "append created audit entry", err)
	}

	uc.publish(ctx, domain.LifecycleEvent{
		ClassificationID: classification.ID,
		Action:           domain.ActionCreated,
		OccurredAt:       now,
	})

	return classification, nil
}

func (uc *SubmitClassificationUseCase) predict(ctx context.Context, timeout time.Duration, image []byte) (domain.Prediction, error) {
	if timeout <= 0 {
		timeout = defaultPredictTimeout
	}
	predictCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prediction, err := uc.classifier.Predict(predictCtx, bytes.NewReader(image))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Prediction{}, domain.WrapError(domain.ErrPredictionTimeout, "predict variety", err)
		}
		return domain.Prediction{}, fmt.Errorf("predict variety: %w", err)
	}
	return prediction, nil
}

func (uc *SubmitClassificationUseCase) flagAuditGap(classificationID string, action domain.AuditAction, err error) {
	logAuditGap(classificationID, action, err)
	if uc.monitor != nil {
		uc.monitor.AuditAppendFailed(action)
	}
}

func (uc *SubmitClassificationUseCase) publish(ctx context.Context, event domain.LifecycleEvent) {
	publishLifecycleEvent(ctx, uc.events, event)
}

func storageKey(filename string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.ReplaceAll(base, " ", "_"))
	if base == "" || base == "." {
		base = "image.bin"
	}
	return fmt.Sprintf("%s_%s", uuid.NewString(), base)
}
