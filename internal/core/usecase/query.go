package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type QueryClassificationsUseCase struct {
	repo ports.ClassificationRepository
}

func NewQueryClassificationsUseCase(repo ports.ClassificationRepository) *QueryClassificationsUseCase {
	return &QueryClassificationsUseCase{repo: repo}
}

func (uc *QueryClassificationsUseCase) GetByID(ctx context.Context, id string) (*domain.Classification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get classification", errors.New("id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

// Query returns one page sorted by classification time descending plus the
// unpaged total for the same filter.
func (uc *QueryClassificationsUseCase) Query(ctx context.Context, filter domain.Filter, page, pageSize int) (*domain.ClassificationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := uc.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.ClassificationPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
