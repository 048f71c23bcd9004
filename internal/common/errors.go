// Package common defines shared constants and sentinel errors used across
// client and server layers of clinicsync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Remote API reachability.
	ErrUnavailable = errors.New("remote api unavailable")

	// Validation errors.
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidPayload    = errors.New("invalid payload")
)
