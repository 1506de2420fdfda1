package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountLocked   = errors.New("account is locked")
	ErrDuplicateLabel  = errors.New("an account with this label already exists")

	// Chart errors
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrEntryNotFound  = errors.New("entry not found")
)

// ValidationError rejects an operation because of bad input. Reason is
// meant to be shown to the caller verbatim.
type ValidationError struct {
	Reason string
	Err    error
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// WrapValidation attaches a cause that errors.Is can see.
func WrapValidation(reason string, err error) *ValidationError {
	return &ValidationError{Reason: reason, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a referenced entity missing from the store or snapshot.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func NewNotFoundError(resource, id string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Err: err}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
