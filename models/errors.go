package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound              = errors.New("water object not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrForbidden             = errors.New("insufficient permissions")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrCannotDeletePublished = errors.New("cannot delete published objects")
	ErrMissingReason         = errors.New("rejection reason is required")
	ErrSelfDemotion          = errors.New("cannot change your own role")
	ErrEmailTaken            = errors.New("email already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPublishConflict       = errors.New("conflicting publish on the same object")
)

// ValidationError carries every validation failure found in one pass so the
// caller can fix a submission in a single round trip.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}
