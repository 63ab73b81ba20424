package domain

import (
	"errors"
	"time"
)

type AuditAction string

const (
	ActionCreated   AuditAction = "created"
	ActionValidated AuditAction = "validated"
	ActionRejected  AuditAction = "rejected"
	ActionExported  AuditAction = "exported"
)

// RequestMetadata carries advisory caller context onto audit entries.
type RequestMetadata struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditEntry is one append-only record of a classification lifecycle event.
// Entries are never updated or deleted; the audit repository exposes no
// mutation beyond Append.
type AuditEntry struct {
	ID               string          `json:"id"`
	ClassificationID string          `json:"classification_id"`
	ActorID          string          `json:"actor_id"`
	Action           AuditAction     `json:"action"`
	Notes            string          `json:"notes,omitempty"`
	BeforeSnapshot   map[string]any  `json:"before_snapshot,omitempty"`
	AfterSnapshot    map[string]any  `json:"after_snapshot,omitempty"`
	Metadata         RequestMetadata `json:"metadata,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// Validate checks required-field presence before any write.
func (e *AuditEntry) Validate() error {
	if e == nil {
		return WrapError(ErrInvalidAuditEntry, "validate audit entry", errors.New("nil entry"))
	}
	if e.ClassificationID == "" {
		return WrapError(ErrInvalidAuditEntry, "validate audit entry", errors.New("classification reference is required"))
	}
	if e.ActorID == "" {
		return WrapError(ErrInvalidAuditEntry, "validate audit entry", errors.New("actor id is required"))
	}
	if e.Action == "" {
		return WrapError(ErrInvalidAuditEntry, "validate audit entry", errors.New("action is required"))
	}
	return nil
}

// StateSnapshot captures the audit-relevant fields of a classification.
func StateSnapshot(c *Classification) map[string]any {
	if c == nil {
		return nil
	}
	snap := map[string]any{
		"state":      string(c.State),
		"variety":    c.PredictedVariety,
		"confidence": c.Confidence,
		"condition":  string(c.Condition),
	}
	if c.ValidatedBy != "" {
		snap["validated_by"] = c.ValidatedBy
	}
	if c.ValidationNotes != "" {
		snap["validation_notes"] = c.ValidationNotes
	}
	return snap
}
