package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

// StatsRepository answers the aggregation queries directly in SQL, the
// relational counterpart of the original report pipelines. Every query
// COALESCEs its averages so an empty set yields zeros, not NULLs.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ConfidenceSummary(ctx context.Context, filter domain.Filter) (domain.ConfidenceSummary, error) {
	where, args := filterClause(filter)
	high := len(args) + 1
	medium := len(args) + 2
	args = append(args, domain.HighConfidenceBand, domain.MediumConfidenceBand)

	query := fmt.Sprintf(`
SELECT
	COALESCE(AVG(confidence), 0),
	COALESCE(MAX(confidence), 0),
	COALESCE(MIN(confidence), 0),
	COUNT(*) FILTER (WHERE confidence >= $%d),
	COUNT(*) FILTER (WHERE confidence >= $%d AND confidence < $%d),
	COUNT(*) FILTER (WHERE confidence < $%d)
FROM classifications
%s
`, high, medium, high, medium, where)

	var summary domain.ConfidenceSummary
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(
			&summary.Mean, &summary.Max, &summary.Min,
			&summary.HighCount, &summary.MediumCount, &summary.LowCount,
		)
	})
	if err != nil {
		return domain.ConfidenceSummary{}, domain.WrapError(domain.ErrPersistence, "confidence summary", err)
	}
	return summary, nil
}

func (r *StatsRepository) CountByVariety(ctx context.Context, filter domain.Filter) ([]domain.VarietyCount, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`
SELECT predicted_variety, COUNT(*), COALESCE(AVG(confidence), 0)
FROM classifications
%s
GROUP BY predicted_variety
ORDER BY COUNT(*) DESC, predicted_variety ASC
`, where)

	var out []domain.VarietyCount
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var groups []domain.VarietyCount
		for rows.Next() {
			var g domain.VarietyCount
			if scanErr := rows.Scan(&g.Variety, &g.Count, &g.MeanConfidence); scanErr != nil {
				return scanErr
			}
			groups = append(groups, g)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = groups
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "count by variety", err)
	}
	return out, nil
}

func (r *StatsRepository) CountBySubmitter(ctx context.Context, filter domain.Filter) ([]domain.SubmitterCount, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`
SELECT submitter_id, COUNT(*), COALESCE(AVG(confidence), 0)
FROM classifications
%s
GROUP BY submitter_id
ORDER BY COUNT(*) DESC, submitter_id ASC
`, where)

	var out []domain.SubmitterCount
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var groups []domain.SubmitterCount
		for rows.Next() {
			var g domain.SubmitterCount
			if scanErr := rows.Scan(&g.SubmitterID, &g.Count, &g.MeanConfidence); scanErr != nil {
				return scanErr
			}
			groups = append(groups, g)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = groups
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "count by submitter", err)
	}
	return out, nil
}

// CountByDay reports one row per day that has records inside the window;
// gaps are not zero-filled.
func (r *StatsRepository) CountByDay(ctx context.Context, filter domain.Filter, windowDays int) ([]domain.DailyCount, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	if filter.From.Before(since) {
		filter.From = since
	}

	where, args := filterClause(filter)
	query := fmt.Sprintf(`
SELECT to_char(classified_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*), COALESCE(AVG(confidence), 0)
FROM classifications
%s
GROUP BY 1
ORDER BY 1 ASC
`, where)

	var out []domain.DailyCount
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var groups []domain.DailyCount
		for rows.Next() {
			var g domain.DailyCount
			if scanErr := rows.Scan(&g.Date, &g.Count, &g.MeanConfidence); scanErr != nil {
				return scanErr
			}
			groups = append(groups, g)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = groups
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "count by day", err)
	}
	return out, nil
}

func (r *StatsRepository) CountByCondition(ctx context.Context, filter domain.Filter) ([]domain.ConditionCount, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`
SELECT condition, COUNT(*), COALESCE(AVG(confidence), 0)
FROM classifications
%s
GROUP BY condition
ORDER BY COUNT(*) DESC
`, where)

	var out []domain.ConditionCount
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var groups []domain.ConditionCount
		for rows.Next() {
			var (
				g         domain.ConditionCount
				condition string
			)
			if scanErr := rows.Scan(&condition, &g.Count, &g.MeanConfidence); scanErr != nil {
				return scanErr
			}
			g.Condition = domain.Condition(condition)
			groups = append(groups, g)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = groups
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "count by condition", err)
	}
	return out, nil
}

func (r *StatsRepository) CountByVarietyAndCondition(ctx context.Context, filter domain.Filter) ([]domain.VarietyConditionCount, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`
SELECT predicted_variety, condition, COUNT(*), COALESCE(AVG(confidence), 0)
FROM classifications
%s
GROUP BY predicted_variety, condition
ORDER BY predicted_variety ASC, condition ASC
`, where)

	var out []domain.VarietyConditionCount
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var groups []domain.VarietyConditionCount
		for rows.Next() {
			var (
				g         domain.VarietyConditionCount
				condition string
			)
			if scanErr := rows.Scan(&g.Variety, &condition, &g.Count, &g.MeanConfidence); scanErr != nil {
				return scanErr
			}
			g.Condition = domain.Condition(condition)
			groups = append(groups, g)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = groups
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "count by variety and condition", err)
	}
	return out, nil
}
