package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

type ClassificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

const classificationColumns = `id, correlation_id, submitter_id, image_ref, predicted_variety, confidence, condition, alternatives, state, processing_latency_ms, model_metadata, classified_at, validated_by, validated_at, validation_notes`

func (r *ClassificationRepository) Create(ctx context.Context, c *domain.Classification) error {
	alternatives, err := json.Marshal(c.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}
	metadata, err := json.Marshal(c.ModelMetadata)
	if err != nil {
		return fmt.Errorf("marshal model metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO classifications (
	id, correlation_id, submitter_id, image_ref, predicted_variety, confidence, condition, alternatives, state, processing_latency_ms, model_metadata, classified_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		c.ID, c.CorrelationID, c.SubmitterID, c.ImageRef, c.PredictedVariety, c.Confidence,
		string(c.Condition), alternatives, string(c.State), c.ProcessingLatencyMs, metadata, c.ClassifiedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert classification", err)
	}
	return nil
}

func (r *ClassificationRepository) GetByID(ctx context.Context, id string) (*domain.Classification, error) {
	var c *domain.Classification
	err := retryRead(ctx, func() error {
		row := r.db.QueryRowContext(ctx, `
SELECT `+classificationColumns+`
FROM classifications
WHERE id = $1
`, id)
		scanned, scanErr := scanClassification(row)
		if scanErr != nil {
			return scanErr
		}
		c = scanned
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClassificationNotFound, "get classification", fmt.Errorf("id %s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "get classification", err)
	}
	return c, nil
}

func (r *ClassificationRepository) List(ctx context.Context, filter domain.Filter, page, pageSize int) ([]domain.Classification, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	where, args := filterClause(filter)
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
SELECT `+classificationColumns+`
FROM classifications
%s
ORDER BY classified_at DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args))

	var out []domain.Classification
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		items := make([]domain.Classification, 0, pageSize)
		for rows.Next() {
			c, scanErr := scanClassification(rows)
			if scanErr != nil {
				return scanErr
			}
			items = append(items, *c)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list classifications", err)
	}
	return out, nil
}

func (r *ClassificationRepository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	where, args := filterClause(filter)
	var count int
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classifications `+where, args...).Scan(&count)
	})
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "count classifications", err)
	}
	return count, nil
}

// Transition is the one compare-and-swap in the system: the UPDATE only
// matches while the row is still processed, so concurrent reviews cannot
// both finalize.
func (r *ClassificationRepository) Transition(ctx context.Context, id, actor string, target domain.State, notes string, at time.Time) (*domain.Classification, error) {
	if target != domain.StateValidated && target != domain.StateRejected {
		return nil, domain.WrapError(domain.ErrInvalidInput, "transition classification", fmt.Errorf("target state %q", target))
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE classifications
SET state = $2, validated_by = $3, validated_at = $4, validation_notes = $5
WHERE id = $1 AND state = $6
`, id, string(target), actor, at, notes, string(domain.StateProcessed))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "transition classification", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "transition classification", err)
	}
	if affected == 0 {
		var state string
		err := r.db.QueryRowContext(ctx, `SELECT state FROM classifications WHERE id = $1`, id).Scan(&state)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClassificationNotFound, "transition classification", fmt.Errorf("id %s", id))
		}
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "transition classification", err)
		}
		return nil, domain.WrapError(domain.ErrInvalidTransition, "transition classification", fmt.Errorf("state is %s", state))
	}

	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassification(row rowScanner) (*domain.Classification, error) {
	var (
		c               domain.Classification
		condition       string
		state           string
		alternativesRaw []byte
		metadataRaw     []byte
		validatedBy     sql.NullString
		validatedAt     sql.NullTime
		validationNotes sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.CorrelationID, &c.SubmitterID, &c.ImageRef, &c.PredictedVariety, &c.Confidence,
		&condition, &alternativesRaw, &state, &c.ProcessingLatencyMs, &metadataRaw, &c.ClassifiedAt,
		&validatedBy, &validatedAt, &validationNotes,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(alternativesRaw, &c.Alternatives); err != nil {
		return nil, fmt.Errorf("unmarshal alternatives: %w", err)
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &c.ModelMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal model metadata: %w", err)
		}
	}
	c.Condition = domain.Condition(condition)
	c.State = domain.State(state)
	if validatedBy.Valid {
		c.ValidatedBy = validatedBy.String
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		c.ValidatedAt = &t
	}
	if validationNotes.Valid {
		c.ValidationNotes = validationNotes.String
	}
	return &c, nil
}

// filterClause builds the shared WHERE fragment for list, count and the
// aggregation queries.
func filterClause(filter domain.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.SubmitterID != "" {
		add("submitter_id = $%d", filter.SubmitterID)
	}
	if filter.Variety != "" {
		add("predicted_variety = $%d", filter.Variety)
	}
	if filter.Condition != "" {
		add("condition = $%d", string(filter.Condition))
	}
	if filter.State != "" {
		add("state = $%d", string(filter.State))
	}
	if !filter.From.IsZero() {
		add("classified_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("classified_at <= $%d", filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
