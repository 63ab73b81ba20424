package usecase

import (
	"context"
	"fmt"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

// dailyWindowDays matches the original 30-day reporting window.
const dailyWindowDays = 30

type StatisticsUseCase struct {
	repo  ports.ClassificationRepository
	stats ports.StatsReader
}

func NewStatisticsUseCase(repo ports.ClassificationRepository, stats ports.StatsReader) *StatisticsUseCase {
	return &StatisticsUseCase{repo: repo, stats: stats}
}

// Statistics recomputes every aggregation from current store contents.
// An empty result set is a valid answer with zero counts, never an error.
func (uc *StatisticsUseCase) Statistics(ctx context.Context, filter domain.Filter) (*domain.Statistics, error) {
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("total count: %w", err)
	}

	confidence, err := uc.stats.ConfidenceSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("confidence summary: %w", err)
	}

	byVariety, err := uc.stats.CountByVariety(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count by variety: %w", err)
	}

	bySubmitter, err := uc.stats.CountBySubmitter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count by submitter: %w", err)
	}

	byDay, err := uc.stats.CountByDay(ctx, filter, dailyWindowDays)
	if err != nil {
		return nil, fmt.Errorf("count by day: %w", err)
	}

	byCondition, err := uc.stats.CountByCondition(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count by condition: %w", err)
	}

	byVarietyCondition, err := uc.stats.CountByVarietyAndCondition(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count by variety and condition: %w", err)
	}

	return &domain.Statistics{
		TotalCount:            total,
		Confidence:            confidence,
		ByVariety:             byVariety,
		BySubmitter:           bySubmitter,
		ByDay:                 byDay,
		ByCondition:           byCondition,
		ByVarietyAndCondition: byVarietyCondition,
	}, nil
}
