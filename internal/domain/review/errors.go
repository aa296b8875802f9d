package review

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups of reviews that do not exist.
	ErrNotFound = errors.New("review not found")

	// ErrConflict marks rejected operations that would violate the review
	// lifecycle or the one-review-per-period rule. The record is unchanged.
	ErrConflict = errors.New("conflict")

	// ErrValidation marks malformed input rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNarrativeUnavailable is returned from the explicit generation path
	// when every configured model failed.
	ErrNarrativeUnavailable = errors.New("narrative generation unavailable")

	// ErrForbidden marks actors without the manager-review capability.
	ErrForbidden = errors.New("not allowed")
)

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func validationf(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}
