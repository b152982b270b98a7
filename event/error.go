package event

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when events are appended to an aggregate whose
// stored history changed since it was read.
var ErrConflict = errors.New("concurrent modification")

// ConflictError is the detailed form of ErrConflict. errors.Is(err,
// ErrConflict) reports true for a *ConflictError.
type ConflictError struct {
	AggregateIdentifier string

	// Expected is the highest sequence number the writer expected.
	Expected int64

	// Actual is the highest sequence number in the store.
	Actual int64
}

func (err *ConflictError) Error() string {
	return fmt.Sprintf("%v: expected highest sequence number %d, got %d [aggregate=%v]", ErrConflict, err.Expected, err.Actual, err.AggregateIdentifier)
}

// Unwrap returns ErrConflict.
func (err *ConflictError) Unwrap() error {
	return ErrConflict
}

// IsConflict reports whether err is or wraps ErrConflict. If it wraps a
// *ConflictError, that error is returned too.
func IsConflict(err error) (*ConflictError, bool) {
	var cerr *ConflictError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, errors.Is(err, ErrConflict)
}
