package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

type AuditTrailUseCase struct {
	audit ports.AuditLog
}

func NewAuditTrailUseCase(audit ports.AuditLog) *AuditTrailUseCase {
	return &AuditTrailUseCase{audit: audit}
}

// Trail returns the ledger for one classification, newest first.
func (uc *AuditTrailUseCase) Trail(ctx context.Context, classificationID string) ([]domain.AuditEntry, error) {
	if strings.TrimSpace(classificationID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "audit trail", errors.New("classification id is required"))
	}
	return uc.audit.HistoryFor(ctx, classificationID)
}
