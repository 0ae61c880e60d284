package portal

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates the requested entity does not exist in the backend
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a write was rejected before reaching the backend
	ErrValidation = errors.New("validation failed")

	// ErrSlugConflict indicates another entity already uses the slug
	ErrSlugConflict = errors.New("slug already exists")

	// ErrUnauthorized indicates the backend rejected the configured credentials
	ErrUnauthorized = errors.New("backend rejected credentials")

	// ErrTransport indicates the backend could not be reached or answered badly
	ErrTransport = errors.New("transport failure")

	// ErrUnknownProvider indicates a provider kind with no registered factory
	ErrUnknownProvider = errors.New("unknown provider kind")
)

// ValidationError describes a single invalid field on a write request
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ValidationError as ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProviderError represents a failed backend operation
type ProviderError struct {
	Provider string
	Op       string
	Status   int

	// Code is the backend's machine-readable error code, when it sent one
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s: %s failed with status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError reports whether err came from rejected backend credentials, in
// which case the caller should prompt for reconfiguration.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// NotFound builds the error returned by update/delete for a missing id
func NotFound(provider, op, id string) error {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      fmt.Errorf("%w: %s", ErrNotFound, id),
	}
}
