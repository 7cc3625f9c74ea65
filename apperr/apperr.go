// Package apperr defines the error taxonomy shared by the storage layer, the
// migration engine and the HTTP surface. Every typed error answers errors.Is
// for exactly one sentinel so callers can branch without knowing the backend.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	// ErrNotFound indicates the targeted record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReferentialIntegrity indicates a create referenced a missing parent.
	ErrReferentialIntegrity = errors.New("referential integrity violation")

	// ErrDuplicateKey indicates a unique constraint collision.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrValidation indicates a malformed field.
	ErrValidation = errors.New("validation failure")

	// ErrStoreUnavailable indicates the backing store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NotFoundError names the entity and id that were not found.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound creates a NotFoundError.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IntegrityError reports a foreign key that does not resolve.
type IntegrityError struct {
	Entity string
	Field  string
	Ref    string
}

func (e *IntegrityError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s references a missing %s", e.Entity, e.Field)
	}
	return fmt.Sprintf("%s references missing %s %q", e.Entity, e.Field, e.Ref)
}

// Is implements errors.Is support
func (e *IntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }

// Integrity creates an IntegrityError.
func Integrity(entity, field, ref string) *IntegrityError {
	return &IntegrityError{Entity: entity, Field: field, Ref: ref}
}

// DuplicateKeyError never carries the constraint name.
type DuplicateKeyError struct {
	Entity string
}

func (e *DuplicateKeyError) Error() string {
	if e.Entity == "" {
		return "this identifier may already exist"
	}
	return fmt.Sprintf("%s: this identifier may already exist", e.Entity)
}

// Is implements errors.Is support
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// DuplicateKey creates a DuplicateKeyError.
func DuplicateKey(entity string) *DuplicateKeyError {
	return &DuplicateKeyError{Entity: entity}
}

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation creates a ValidationError.
func Validation(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// UnavailableError wraps a connectivity failure. Its message is generic so it
// can be surfaced without leaking connection details; the cause stays
// reachable through Unwrap for logging.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return "store unavailable" }

// Unwrap implements errors.Unwrap
func (e *UnavailableError) Unwrap() error { return e.Err }

// Is implements errors.Is support
func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable wraps err as an UnavailableError.
func Unavailable(err error) *UnavailableError {
	return &UnavailableError{Err: err}
}

// Code returns the short taxonomy code for err, or "internal" when err does not
// belong to the taxonomy.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_failure"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrReferentialIntegrity):
		return "referential_integrity_violation"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
