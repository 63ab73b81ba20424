package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

// VarietyRepository reads the variety lookup table. The catalog is owned by
// an external administrative process; this side only seeds defaults and reads.
type VarietyRepository struct {
	db *sql.DB
}

func NewVarietyRepository(db *sql.DB) *VarietyRepository {
	return &VarietyRepository{db: db}
}

func (r *VarietyRepository) ActiveByCommonName(ctx context.Context, commonName string) (*domain.Variety, error) {
	var v domain.Variety
	var scientific, description sql.NullString
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx, `
SELECT common_name, scientific_name, description, active
FROM varieties
WHERE common_name = $1 AND active
`, commonName).Scan(&v.CommonName, &scientific, &description, &v.Active)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrUnknownVariety, "lookup variety", fmt.Errorf("common name %q", commonName))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "lookup variety", err)
	}
	v.ScientificName = scientific.String
	v.Description = description.String
	return &v, nil
}

func (r *VarietyRepository) ListActive(ctx context.Context) ([]domain.Variety, error) {
	var out []domain.Variety
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, `
SELECT common_name, scientific_name, description, active
FROM varieties
WHERE active
ORDER BY common_name ASC
`)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var varieties []domain.Variety
		for rows.Next() {
			var v domain.Variety
			var scientific, description sql.NullString
			if scanErr := rows.Scan(&v.CommonName, &scientific, &description, &v.Active); scanErr != nil {
				return scanErr
			}
			v.ScientificName = scientific.String
			v.Description = description.String
			varieties = append(varieties, v)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = varieties
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list varieties", err)
	}
	return out, nil
}

// Seed inserts catalog entries that do not exist yet. Existing rows are left
// untouched so administrative edits survive restarts.
func (r *VarietyRepository) Seed(ctx context.Context, varieties []domain.Variety) error {
	for _, v := range varieties {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO varieties (common_name, scientific_name, description, active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (common_name) DO NOTHING
`, v.CommonName, v.ScientificName, v.Description, v.Active)
		if err != nil {
			return domain.WrapError(domain.ErrPersistence, "seed varieties", err)
		}
	}
	return nil
}
