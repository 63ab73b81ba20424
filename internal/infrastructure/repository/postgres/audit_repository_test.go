package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
)

func newAuditRepoWithMock(t *testing.T) (*AuditRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &AuditRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestAppendRejectsIncompleteEntryBeforeWrite(t *testing.T) {
	repo, mock, done := newAuditRepoWithMock(t)
	defer done()

	err := repo.Append(context.Background(), &domain.AuditEntry{
		ID:      "a1",
		ActorID: "user-1",
		Action:  domain.ActionCreated,
	})
	if !domain.IsKind(err, domain.ErrInvalidAuditEntry) {
		t.Fatalf("expected ErrInvalidAuditEntry, got %v", err)
	}
	// Validation failed, so nothing may have reached the database.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendWritesSnapshotsAndMetadata(t *testing.T) {
	repo, mock, done := newAuditRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(
			"a1", "c1", "reviewer-1", string(domain.ActionValidated), "looks right",
			[]byte(`{"state":"processed"}`), []byte(`{"state":"validated"}`),
			"10.0.0.7", "papaclick-app/3.2", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), &domain.AuditEntry{
		ID:               "a1",
		ClassificationID: "c1",
		ActorID:          "reviewer-1",
		Action:           domain.ActionValidated,
		Notes:            "looks right",
		BeforeSnapshot:   map[string]any{"state": "processed"},
		AfterSnapshot:    map[string]any{"state": "validated"},
		Metadata:         domain.RequestMetadata{IP: "10.0.0.7", UserAgent: "papaclick-app/3.2"},
		OccurredAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryForOrdersNewestFirst(t *testing.T) {
	repo, mock, done := newAuditRepoWithMock(t)
	defer done()

	later := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "classification_id", "actor_id", "action", "notes",
		"before_snapshot", "after_snapshot", "request_ip", "request_agent", "occurred_at",
	}).
		AddRow("a2", "c1", "reviewer-1", string(domain.ActionValidated), "ok",
			[]byte(`{"state":"processed"}`), []byte(`{"state":"validated"}`), "10.0.0.7", "papaclick-app/3.2", later).
		AddRow("a1", "c1", "user-1", string(domain.ActionCreated), nil,
			nil, []byte(`{"state":"processed"}`), "10.0.0.9", nil, earlier)

	mock.ExpectQuery("SELECT id, classification_id, actor_id").
		WithArgs("c1").
		WillReturnRows(rows)

	entries, err := repo.HistoryFor(context.Background(), "c1")
	if err != nil {
		t.Fatalf("HistoryFor() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Action != domain.ActionValidated || entries[1].Action != domain.ActionCreated {
		t.Fatalf("unexpected order: %s, %s", entries[0].Action, entries[1].Action)
	}
	if entries[1].BeforeSnapshot != nil {
		t.Fatalf("creation entry should have no before snapshot, got %v", entries[1].BeforeSnapshot)
	}
	if got := entries[0].AfterSnapshot["state"]; got != "validated" {
		t.Fatalf("after snapshot state = %v", got)
	}
	if entries[0].Metadata.IP != "10.0.0.7" {
		t.Fatalf("metadata ip = %q", entries[0].Metadata.IP)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
