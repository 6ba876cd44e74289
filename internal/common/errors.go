// Package common defines shared constants and sentinel errors used across
// the local and remote backends and the session store. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrSessionIntegrity marks a session the backend can no longer vouch for
	// (identity mismatch, rejected token). It is the only error class that is
	// propagated to force a full session wipe.
	ErrSessionIntegrity = errors.New("invalid session detected")

	// ErrUnavailable marks a storage or network failure. It never implies
	// anything about the session and must not trigger a wipe.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrDisposed is returned by a session store used after Dispose.
	ErrDisposed = errors.New("session store disposed")
)
