/*
errors.go - Centralized error types for the policy data service

PURPOSE:
  All error types in one place so the service and HTTP layers agree on
  how a failure is reported. Callers wrap these with fmt.Errorf("...: %w").

ERROR CATEGORIES:
  1. Lookup errors - Requested records do not exist
  2. Access errors - Caller may not see the requested records
  3. Input errors - Malformed requests

SEE ALSO:
  - service/: Returns these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package cims

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsuranceNotFound is returned when none of the requested insurance
	// keys exist for the reinsurance year. Policy assembly needs at least one.
	ErrInsuranceNotFound = errors.New("insurance in force not found")

	// ErrForbidden is returned when the caller is not authorized for the
	// producer behind the requested records.
	ErrForbidden = errors.New("not authorized for policy producer")

	// ErrUnauthenticated is returned when no caller identity is available.
	ErrUnauthenticated = errors.New("caller identity required")

	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmailNotFound is returned when an update names an e-mail id that
	// does not belong to the producer.
	ErrEmailNotFound = errors.New("producer email not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError describes a single invalid request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidRequest
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInsuranceNotFound) ||
		errors.Is(err, ErrEmailNotFound)
}

// IsForbidden returns true if the caller lacks access.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthenticated returns true if the caller identity is missing.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
