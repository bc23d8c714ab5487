package services

import (
	"errors"
)

var (
	// ErrNoIdentity means the caller has no anonymous identifier yet; writes are refused.
	ErrNoIdentity = errors.New("Cannot post: Application not fully connected. Please refresh the page.")
	// ErrInFlight means the same action by the same user has not resolved yet.
	ErrInFlight = errors.New("A previous submission is still in progress.")
)

// ValidationError is an input problem caught before any store call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
