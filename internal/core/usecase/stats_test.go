package usecase

import (
	"context"
	"testing"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

func TestStatisticsBundlesEveryAggregation(t *testing.T) {
	repo := newFakeRepo()
	seedProcessed(t, repo)
	reader := &fakeStatsReader{
		summary: domain.ConfidenceSummary{Mean: 0.6, Max: 0.9, Min: 0.3, HighCount: 1, MediumCount: 1, LowCount: 1},
		byVariety: []domain.VarietyCount{
			{Variety: "amarilla", Count: 2, MeanConfidence: 0.75},
			{Variety: "huayro", Count: 1, MeanConfidence: 0.3},
		},
		byCondition: []domain.ConditionCount{
			{Condition: domain.ConditionFit, Count: 2, MeanConfidence: 0.75},
			{Condition: domain.ConditionUnfit, Count: 1, MeanConfidence: 0.3},
		},
	}
	uc := NewStatisticsUseCase(repo, reader)

	stats, err := uc.Statistics(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalCount != 1 {
		t.Fatalf("total = %d, want 1", stats.TotalCount)
	}
	if stats.Confidence.HighCount != 1 || stats.Confidence.MediumCount != 1 || stats.Confidence.LowCount != 1 {
		t.Fatalf("bands = %+v, want 1/1/1", stats.Confidence)
	}
	if stats.Confidence.Mean != 0.6 {
		t.Fatalf("mean = %v, want 0.6", stats.Confidence.Mean)
	}
	if len(stats.ByVariety) != 2 || stats.ByVariety[0].Variety != "amarilla" {
		t.Fatalf("by variety = %+v", stats.ByVariety)
	}
}

func TestStatisticsEmptySetIsZeroNotError(t *testing.T) {
	uc := NewStatisticsUseCase(newFakeRepo(), &fakeStatsReader{})

	stats, err := uc.Statistics(context.Background(), domain.Filter{SubmitterID: "nobody"})
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalCount != 0 {
		t.Fatalf("total = %d, want 0", stats.TotalCount)
	}
	if stats.Confidence.Mean != 0 {
		t.Fatalf("mean = %v, want 0 for empty set", stats.Confidence.Mean)
	}
}
