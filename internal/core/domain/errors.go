package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidConfidence      = errors.New("confidence out of range")
	ErrUnknownVariety         = errors.New("unknown or inactive variety")
	ErrInvalidAuditEntry      = errors.New("invalid audit entry")
	ErrClassificationNotFound = errors.New("classification not found")
	ErrInvalidTransition      = errors.New("classification already finalized")
	ErrPersistence            = errors.New("persistence failure")
	ErrPredictionTimeout      = errors.New("prediction timed out")
	ErrTemporary              = errors.New("temporary failure")

	// ErrAuditTrailIncomplete flags a classification that was written while
	// its audit append failed. The record exists; callers must surface the
	// gap instead of swallowing it.
	ErrAuditTrailIncomplete = errors.New("audit trail incomplete")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
