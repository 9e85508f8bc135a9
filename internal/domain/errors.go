package domain

import (
	"errors"
	"fmt"
)

// Logical errors are real state facts: the caller must not retry them.
var (
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrSelfReferral      = errors.New("cannot refer yourself")
	ErrDuplicateReferral = errors.New("referral already exists")
	ErrValidation        = errors.New("invalid input")
)

// TransientError marks a storage or network failure that is safe to retry
// on the next sync pass. It must never surface as a hard rejection.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
