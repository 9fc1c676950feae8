package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned before any query runs when a caller
	// passes an unknown granularity, grouping dimension or a missing
	// required value.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrStoreUnavailable matches every failure reported by the store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTooManyGroups signals that a grouping cannot be rendered.
	ErrTooManyGroups = errors.New("too many groups")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// StoreError wraps a failed query. Reads are idempotent so callers may
// retry on it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// TooManyGroupsError reports how many groups a result had.
type TooManyGroupsError struct {
	Groups int
	Limit  int
}

func (e *TooManyGroupsError) Error() string {
	return fmt.Sprintf("too many groups: %d exceeds limit of %d", e.Groups, e.Limit)
}

func (e *TooManyGroupsError) Is(target error) bool { return target == ErrTooManyGroups }

// CheckGroups fails when n distinct groups exceed limit. A non-positive
// limit disables the check.
func CheckGroups(n, limit int) error {
	if limit > 0 && n > limit {
		return &TooManyGroupsError{Groups: n, Limit: limit}
	}
	return nil
}
