package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey rejects a memory merge whose key is malformed.
	// The merge never partially applies.
	ErrInvalidKey = errors.New("invalid memory key")

	// ErrUnknownCapability means an envelope named a stage that is not in
	// the registry. A configuration error, always fatal to the run.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrPipelineOverrun means a run exceeded its hop ceiling, which guards
	// against cycles in next_agent chains.
	ErrPipelineOverrun = errors.New("pipeline hop ceiling exceeded")

	ErrProfileNotFound = errors.New("profile not found")
)

// TransientError marks a capability failure worth retrying: timeouts,
// unreachable collaborators, rate limits. The orchestrator retries these
// with backoff before giving up.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient: %s: %v", e.Reason, e.Err)
	}
	return "transient: " + e.Reason
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure.
func Transient(reason string, err error) error {
	return &TransientError{Reason: reason, Err: err}
}

// IsTransient reports whether any error in the chain is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PermanentError marks invalid input or a business-rule violation.
// Never retried; aborts the run with the partial hop log intact.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent: %s: %v", e.Reason, e.Err)
	}
	return "permanent: " + e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a non-retryable failure.
func Permanent(reason string, err error) error {
	return &PermanentError{Reason: reason, Err: err}
}

// IllegalTransitionError carries the rejected lifecycle edge.
type IllegalTransitionError struct {
	From ApplicationStatus
	To   ApplicationStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal application transition: %s -> %s", e.From, e.To)
}
