package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

// AuditRepository is the append-only ledger. It deliberately exposes no
// update or delete; the table is only ever inserted into and read.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	before, err := marshalSnapshot(entry.BeforeSnapshot)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := marshalSnapshot(entry.AfterSnapshot)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO audit_entries (
	id, classification_id, actor_id, action, notes, before_snapshot, after_snapshot, request_ip, request_agent, occurred_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		entry.ID, entry.ClassificationID, entry.ActorID, string(entry.Action), entry.Notes,
		before, after, entry.Metadata.IP, entry.Metadata.UserAgent, entry.OccurredAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "append audit entry", err)
	}
	return nil
}

func (r *AuditRepository) HistoryFor(ctx context.Context, classificationID string) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	err := retryRead(ctx, func() error {
		rows, qErr := r.db.QueryContext(ctx, `
SELECT id, classification_id, actor_id, action, notes, before_snapshot, after_snapshot, request_ip, request_agent, occurred_at
FROM audit_entries
WHERE classification_id = $1
ORDER BY occurred_at DESC
`, classificationID)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		var entries []domain.AuditEntry
		for rows.Next() {
			var (
				e         domain.AuditEntry
				action    string
				notes     sql.NullString
				beforeRaw []byte
				afterRaw  []byte
				ip        sql.NullString
				agent     sql.NullString
			)
			if scanErr := rows.Scan(
				&e.ID, &e.ClassificationID, &e.ActorID, &action, &notes,
				&beforeRaw, &afterRaw, &ip, &agent, &e.OccurredAt,
			); scanErr != nil {
				return scanErr
			}
			e.Action = domain.AuditAction(action)
			e.Notes = notes.String
			e.Metadata = domain.RequestMetadata{IP: ip.String, UserAgent: agent.String}
			if unmarshalErr := unmarshalSnapshot(beforeRaw, &e.BeforeSnapshot); unmarshalErr != nil {
				return unmarshalErr
			}
			if unmarshalErr := unmarshalSnapshot(afterRaw, &e.AfterSnapshot); unmarshalErr != nil {
				return unmarshalErr
			}
			entries = append(entries, e)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}
		out = entries
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "audit history", err)
	}
	return out, nil
}

func marshalSnapshot(snapshot map[string]any) ([]byte, error) {
	if snapshot == nil {
		return nil, nil
	}
	return json.Marshal(snapshot)
}

func unmarshalSnapshot(raw []byte, into *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return nil
}
