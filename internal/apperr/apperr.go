// Package apperr defines the error kinds shared by the client core.
// Callers match them with errors.Is.
package apperr

import "errors"

var (
	// ErrConnectivityUnavailable means the backend could not be reached or
	// the operation requires the backend and the client is offline.
	ErrConnectivityUnavailable = errors.New("connectivity unavailable")

	// ErrRemoteRejected means the backend answered with a non-success status.
	ErrRemoteRejected = errors.New("remote rejected")

	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidationFailed = errors.New("validation failed")

	// ErrLocalStore wraps failures of the on-device store.
	ErrLocalStore = errors.New("local store failure")
)
