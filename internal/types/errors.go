package types

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a collaborator returned data we cannot
// use. The affected profile is skipped; the batch continues.
var ErrMalformedResponse = errors.New("malformed provider response")

// TransientError wraps a provider failure that is worth retrying:
// rate limits, timeouts, transient network errors.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transient %s error", e.Op)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError for the named operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ExhaustedError marks a profile whose retries ran out. The profile ends
// the run FAILED and is eligible for retry on the next run.
type ExhaustedError struct {
	Op  string
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after retries: %v", e.Op, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// SkipError marks a profile-level condition that is terminal: the profile
// is skipped this run and will not be retried (e.g. nothing to build a
// query from).
type SkipError struct {
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skipped (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("skipped (%s)", e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// Skip wraps err as a terminal SkipError with the given reason.
func Skip(reason string, err error) error {
	return &SkipError{Reason: reason, Err: err}
}
