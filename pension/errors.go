/*
errors.go - Centralized error types for the pension domain

PURPOSE:
  All domain error values in one place. Outer layers (store, api) wrap these
  with transport context but classify them through the helpers below.

ERROR CATEGORIES:
  1. Application lifecycle errors - duplicate submission, invalid decision
  2. Bounds errors - investment amount outside the computed range, carrying
     the bound and the percentage that produced it for user feedback
  3. Not-found errors - shared sentinels the storage layer maps onto

PROPAGATION POLICY:
  Every failure is a value-level outcome, never process-fatal. The domain
  never logs; HTTP status mapping happens in the api package via
  IsClientError / IsNotFound.
*/
package pension

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateApplication is returned when an employee already holds an
	// application for the scheme, whatever its status.
	ErrDuplicateApplication = errors.New("already applied for this scheme")

	// ErrApplicationNotFound is returned when a decision references a scheme
	// the employee never applied to.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrAlreadyDecided is returned when re-deciding a terminal application
	// and the service is configured to forbid it.
	ErrAlreadyDecided = errors.New("application already decided")

	// ErrInvalidDecision is returned when a decision status is neither
	// Accepted nor Rejected.
	ErrInvalidDecision = errors.New("decision must be Accepted or Rejected")

	// ErrBelowMinimum / ErrAboveMaximum back the structured bounds errors.
	ErrBelowMinimum = errors.New("investment below scheme minimum")
	ErrAboveMaximum = errors.New("investment above scheme maximum")

	// ErrInvalidScheme is returned when scheme invariants do not hold.
	ErrInvalidScheme = errors.New("invalid scheme")

	// Not-found sentinels for external lookups, shared with the store.
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrSchemeNotFound   = errors.New("pension scheme not found")
	ErrCompanyNotFound  = errors.New("company not found")
	ErrAdminNotFound    = errors.New("admin not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the bound and driving percentage
// =============================================================================

// BelowMinimumError reports an investment under the effective minimum.
// The message format is part of the observable contract with existing
// clients; do not reword it.
type BelowMinimumError struct {
	SchemeName string
	Minimum    decimal.Decimal
	SalaryPct  decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("Minimum investment for this scheme is ₹%s (%s%% of your salary)",
		e.Minimum.String(), e.SalaryPct.String())
}

func (e *BelowMinimumError) Unwrap() error { return ErrBelowMinimum }

// AboveMaximumError reports an investment over the effective maximum.
type AboveMaximumError struct {
	SchemeName string
	Maximum    decimal.Decimal
	SalaryPct  decimal.Decimal
}

func (e *AboveMaximumError) Error() string {
	return fmt.Sprintf("Maximum investment for this scheme is ₹%s (%s%% of your salary)",
		e.Maximum.String(), e.SalaryPct.String())
}

func (e *AboveMaximumError) Unwrap() error { return ErrAboveMaximum }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateApplication) ||
		errors.Is(err, ErrBelowMinimum) ||
		errors.Is(err, ErrAboveMaximum) ||
		errors.Is(err, ErrAlreadyDecided) ||
		errors.Is(err, ErrInvalidDecision) ||
		errors.Is(err, ErrInvalidScheme)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrSchemeNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrAdminNotFound)
}
