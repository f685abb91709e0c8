package health

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means the platform health service is absent or disabled.
	ErrProviderUnavailable = errors.New("health provider unavailable")
	ErrPermissionDenied    = errors.New("health permissions denied")
)

// QueryError wraps a failed session or daily-aggregate query call.
type QueryError struct {
	Query string
	Err   error
}

func NewQueryError(query string, err error) *QueryError {
	return &QueryError{Query: query, Err: err}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %s", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MalformedRecordError rejects a single raw record that cannot be normalized.
type MalformedRecordError struct {
	Reason string
}

func NewMalformedRecordError(format string, args ...any) *MalformedRecordError {
	return &MalformedRecordError{Reason: fmt.Sprintf(format, args...)}
}

func (e *MalformedRecordError) Error() string {
	return "malformed record: " + e.Reason
}
