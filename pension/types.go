/*
Package pension provides the core domain model for the pension management
system.

PURPOSE:
  This package contains the scheme, employee, and application types plus the
  two pieces of business logic with real invariants: the eligibility/limit
  calculator (eligibility.go) and the application lifecycle service
  (application.go). Everything here is pure computation over explicit
  inputs - no persistence, no logging, no HTTP.

KEY CONCEPTS IN THIS FILE (types.go):
  - Scheme: A pension product with contribution bounds and interest terms
  - Employee: The aggregate owning an ordered list of Applications
  - Application: An employee's request to invest in a scheme, with a
    Pending -> Accepted/Rejected lifecycle
  - Bounds: The computed (min, max) permissible investment range

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all currency and percentage values
  2. Immutability: An Application's amount and timestamp never change after
     creation; only status and admin note are mutated, together
  3. Single aggregate: Applications are owned by their Employee; schemes are
     shared references looked up by ID

SEE ALSO:
  - eligibility.go: ComputeBounds
  - application.go: ApplicationService (Submit/Decide)
  - errors.go: Error taxonomy
*/
package pension

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SchemeID string
type EmployeeID string
type AdminID string
type CompanyID string

// =============================================================================
// SCHEME - A pension product
// =============================================================================

// Scheme defines a pension product. Created by seed/admin processes and
// read-only to employees; the core never deletes schemes.
type Scheme struct {
	ID          SchemeID
	Name        string
	Description string

	// Absolute currency bounds on a single investment.
	MinimumInvestment decimal.Decimal
	MaximumInvestment decimal.Decimal

	// Annual percentage rate used for growth projection.
	InterestRate decimal.Decimal

	// Maximum tenure in years.
	DurationYears int

	// Salary-relative bounds, 0-100. Zero min percentage means the absolute
	// minimum alone applies; 100 max percentage means salary does not cap
	// the investment.
	MinSalaryPercentage decimal.Decimal
	MaxSalaryPercentage decimal.Decimal

	// Government schemes pay out interest only (corpus preserved); private
	// schemes draw the corpus down over a fixed horizon. See projection.
	IsGovernmentScheme bool

	CreatedAt time.Time
}

var hundred = decimal.NewFromInt(100)

// Validate checks the scheme invariants: non-negative bounds, min <= max,
// and 0 <= minPct <= maxPct <= 100.
func (s Scheme) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScheme)
	}
	if s.MinimumInvestment.IsNegative() {
		return fmt.Errorf("%w: minimum investment is negative", ErrInvalidScheme)
	}
	if s.MaximumInvestment.LessThan(s.MinimumInvestment) {
		return fmt.Errorf("%w: maximum investment below minimum", ErrInvalidScheme)
	}
	if s.InterestRate.IsNegative() {
		return fmt.Errorf("%w: interest rate is negative", ErrInvalidScheme)
	}
	if s.DurationYears <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidScheme)
	}
	if s.MinSalaryPercentage.IsNegative() || s.MaxSalaryPercentage.LessThan(s.MinSalaryPercentage) ||
		s.MaxSalaryPercentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: salary percentages must satisfy 0 <= min <= max <= 100", ErrInvalidScheme)
	}
	return nil
}

// =============================================================================
// APPLICATION - An employee's request to invest in a scheme
// =============================================================================

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
)

// Decided reports whether the status is terminal.
func (s ApplicationStatus) Decided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Application records an employee's request to invest in a scheme.
// InvestmentAmount and AppliedAt are fixed at creation; Status and AdminNote
// are mutated together by an admin decision and by nothing else.
type Application struct {
	SchemeID         SchemeID
	SchemeName       string
	InvestmentAmount decimal.Decimal
	Status           ApplicationStatus
	AdminNote        string
	AppliedAt        time.Time
}

// =============================================================================
// EMPLOYEE - Aggregate owning its applications
// =============================================================================

// Employee is the aggregate root for applications. AppliedSchemes preserves
// insertion order (application order); at most one entry exists per scheme.
type Employee struct {
	ID            EmployeeID
	EmployeeCode  string
	Name          string
	Email         string
	PasswordHash  string
	DateOfJoining time.Time
	Salary        decimal.Decimal
	CompanyID     CompanyID
	CreatedAt     time.Time

	AppliedSchemes []Application

	// Secondary index over AppliedSchemes keyed by scheme. Rebuilt lazily;
	// valid because applications are append-only and never removed.
	byScheme map[SchemeID]int
}

func (e *Employee) reindex() {
	e.byScheme = make(map[SchemeID]int, len(e.AppliedSchemes))
	for i, app := range e.AppliedSchemes {
		e.byScheme[app.SchemeID] = i
	}
}

// Application returns a pointer to the employee's application for the given
// scheme, or nil if none exists. The pointer aliases the aggregate's slice
// so lifecycle transitions mutate in place.
func (e *Employee) Application(schemeID SchemeID) *Application {
	if len(e.byScheme) != len(e.AppliedSchemes) {
		e.reindex()
	}
	i, ok := e.byScheme[schemeID]
	if !ok {
		return nil
	}
	return &e.AppliedSchemes[i]
}

// HasApplied reports whether the employee already holds an application for
// the scheme, regardless of its status.
func (e *Employee) HasApplied(schemeID SchemeID) bool {
	return e.Application(schemeID) != nil
}

func (e *Employee) append(app Application) *Application {
	e.AppliedSchemes = append(e.AppliedSchemes, app)
	if e.byScheme == nil {
		e.reindex()
	} else {
		e.byScheme[app.SchemeID] = len(e.AppliedSchemes) - 1
	}
	return &e.AppliedSchemes[len(e.AppliedSchemes)-1]
}

// =============================================================================
// COMPANY / ADMIN - Supporting records for the role-gated surface
// =============================================================================

type Company struct {
	ID        CompanyID
	Name      string
	Address   string
	CreatedAt time.Time
}

type Admin struct {
	ID           AdminID
	Name         string
	Email        string
	PasswordHash string
	CompanyID    CompanyID
}
