package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrUnknownNode     = errors.New("variable is not a node in the causal graph")
	ErrSameVariable    = errors.New("variables must be distinct")
	ErrColumnNotFound  = errors.New("column not found in dataset")
	ErrNotBinary       = errors.New("column must be binary (0/1)")
	ErrMissingLevel    = errors.New("binary column must contain both 0 and 1")
	ErrTreatmentCaused = errors.New("randomized treatment must have no declared causes")

	// Instrument errors
	ErrInstrumentIrrelevant = errors.New("instrument has no directed path to treatment")
	ErrExclusionViolated    = errors.New("instrument reaches outcome without passing through treatment")

	// Fitting errors
	ErrFitFailed        = errors.New("numeric fitting failed")
	ErrInsufficientData = errors.New("insufficient data for estimation")
)

// ValidationError reports a violated structural or data precondition.
// It wraps one of the sentinel errors above so callers can branch with
// errors.Is while still getting a message naming the offending variable.
type ValidationError struct {
	Field  string
	Reason error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("validation failed for %q: %v (%s)", e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("validation failed for %q: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// NewValidationError builds a ValidationError around a sentinel reason.
func NewValidationError(field string, reason error, detail string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Detail: detail}
}

// IsValidationError checks whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewFitError wraps a failure from the fitting collaborator.
func NewFitError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrFitFailed, stage, err)
}
