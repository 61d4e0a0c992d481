package common

import (
	"fmt"

	"github.com/talkarchive/backend/libs/errors"
)

// ConfigurationError indicates missing or invalid static configuration
// (credentials, timeouts, endpoints).
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// TransportError indicates a failure to deliver a request to a remote
// collaborator. The request may or may not have been processed.
type TransportError struct {
	Cause error
}

func (e TransportError) Error() string {
	return "transport: " + e.Cause.Error()
}

// APIError indicates a non-2xx status or a malformed response body from
// the processing engine.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api: status=%d %s", e.StatusCode, e.Reason)
	}
	return "api: " + e.Reason
}

// ConflictError indicates the idempotent-submission guard rejected a
// write because another active submission holds the row.
type ConflictError struct {
	InputKey string
}

func (e ConflictError) Error() string {
	return "conflict: job already in progress for " + e.InputKey
}

// ValidationError indicates a record that cannot be submitted or
// reconciled as-is (missing source reference, bad identity).
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation: " + e.Reason
}

// StoreError wraps a tracking-store failure other than the conditional
// guard.
type StoreError struct {
	Cause error
}

func (e StoreError) Error() string {
	return "store: " + e.Cause.Error()
}

// InvalidStateError indicates an operation that requires an open job was
// called on a record without one.
type InvalidStateError struct {
	Reason string
}

func (e InvalidStateError) Error() string {
	return "invalid state: " + e.Reason
}

// CompensationError reports a failed submission whose compensating
// record write also failed. Both errors are surfaced so neither is
// silently dropped.
type CompensationError struct {
	Cause         error
	CompensateErr error
}

func (e CompensationError) Error() string {
	return fmt.Sprintf("submission failed (%s) and compensating write failed (%s)", e.Cause, e.CompensateErr)
}

// IsExpectedError reports whether err belongs to the error taxonomy the
// sweep driver is allowed to log and skip. Anything else (invariant
// violations, programming errors) must propagate.
func IsExpectedError(err error) bool {
	switch errors.Cause(err).(type) {
	case ConfigurationError, TransportError, APIError, ConflictError,
		ValidationError, StoreError, InvalidStateError, CompensationError:
		return true
	}
	return false
}
