package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonthYear   = errors.New("invalid month, expected YYYY-MM")
	ErrGoalExceeded       = errors.New("saved amount would exceed goal")
	ErrCategoryInUse      = errors.New("category is referenced by transactions")

	// ErrAmountTooLarge is an ErrInvalidAmount above MaxAmount.
	ErrAmountTooLarge = fmt.Errorf("%w: above maximum", ErrInvalidAmount)
)

// ValidationError is a rejection of caller input carrying a human-readable
// reason. Field is empty when the reason is not tied to a single input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AsValidation extracts the *ValidationError from err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
