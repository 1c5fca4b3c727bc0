package service

import (
	"errors"
	"fmt"

	"github.com/execcoach/coach/internal/repository"
)

var (
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrInvalidCommandArgument = errors.New("invalid command argument")
	ErrDuplicateCheckIn       = errors.New("duplicate check-in")
	ErrInvariantViolation     = errors.New("invariant violation")
)

// InvalidArgumentError carries the clarification shown to the user.
type InvalidArgumentError struct {
	Clarification string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid command argument: " + e.Clarification
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidCommandArgument
}

func invalidArgument(format string, args ...any) error {
	return &InvalidArgumentError{Clarification: fmt.Sprintf(format, args...)}
}

// Clarification returns the user-facing text of an invalid argument error.
func Clarification(err error) (string, bool) {
	var invalid *InvalidArgumentError
	if errors.As(err, &invalid) {
		return invalid.Clarification, true
	}
	return "", false
}

// storeError marks a repository failure as ErrStoreUnavailable. Domain sentinels
// from the repositories pass through untouched.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrGoalNotOpen),
		errors.Is(err, ErrInvariantViolation),
		errors.Is(err, ErrInvalidCommandArgument):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
