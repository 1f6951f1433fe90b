/*
application.go - Application lifecycle service

PURPOSE:
  Governs creation, uniqueness, and status transitions of scheme
  applications on a single Employee aggregate.

LIFECYCLE:

        Submit                    Decide
  ────────────────▶ ┌─────────┐ ──────────▶ ┌──────────┐
                    │ Pending │             │ Accepted │  (terminal)
                    └─────────┘ ──────────▶ ├──────────┤
                                            │ Rejected │  (terminal)
                                            └──────────┘

VALIDATION ORDER:
  Submit checks for a duplicate application before checking bounds. The
  duplicate check is cheaper and yields the more specific error, so this
  precedence is part of the contract under combined failure conditions.

RE-DECISION:
  Whether an admin may decide an already-decided application again
  (overwriting status and note) is configurable via AllowRedecision.
  The default forbids it.

CONCURRENCY:
  All side effects are confined to the Employee aggregate passed in. The
  read-modify-write of the aggregate must be serialized per employee by the
  persistence layer (the sqlite store does this with a transaction plus a
  unique index); no cross-employee coordination is needed.

SEE ALSO:
  - eligibility.go: ComputeBounds
  - store/sqlite: Persistence of the aggregate
*/
package pension

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationService orchestrates the application lifecycle.
// The zero value is usable: re-decision forbidden, wall clock time.
type ApplicationService struct {
	// AllowRedecision permits Decide on an already Accepted/Rejected
	// application, silently overwriting status and note.
	AllowRedecision bool

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *ApplicationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Submit validates and appends a new Pending application for the scheme on
// the employee aggregate. On success it returns the created application
// (aliasing the aggregate) and the bounds used, so callers can echo them
// back. The caller persists the mutated aggregate.
func (s *ApplicationService) Submit(e *Employee, scheme Scheme, amount decimal.Decimal) (*Application, Bounds, error) {
	if e.HasApplied(scheme.ID) {
		return nil, Bounds{}, ErrDuplicateApplication
	}

	bounds := ComputeBounds(scheme, e.Salary)

	if amount.LessThan(bounds.Min) {
		return nil, bounds, &BelowMinimumError{
			SchemeName: scheme.Name,
			Minimum:    bounds.Min,
			SalaryPct:  bounds.MinSalaryPct,
		}
	}
	if amount.GreaterThan(bounds.Max) {
		return nil, bounds, &AboveMaximumError{
			SchemeName: scheme.Name,
			Maximum:    bounds.Max,
			SalaryPct:  bounds.MaxSalaryPct,
		}
	}

	app := e.append(Application{
		SchemeID:         scheme.ID,
		SchemeName:       scheme.Name,
		InvestmentAmount: amount,
		Status:           StatusPending,
		AppliedAt:        s.now(),
	})
	return app, bounds, nil
}

// Decide sets the status and admin note of the employee's application for
// the scheme, atomically and touching nothing else. Status must be Accepted
// or Rejected. The caller persists the mutated aggregate.
func (s *ApplicationService) Decide(e *Employee, schemeID SchemeID, status ApplicationStatus, note string) (*Application, error) {
	if !status.Decided() {
		return nil, ErrInvalidDecision
	}

	app := e.Application(schemeID)
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status.Decided() && !s.AllowRedecision {
		return nil, ErrAlreadyDecided
	}

	app.Status = status
	app.AdminNote = note
	return app, nil
}
