/*
eligibility.go - Investment bounds calculator

PURPOSE:
  Computes the permissible investment range for a (scheme, salary) pair.
  Pure function: no side effects, no persistence, no error conditions -
  a valid non-empty range is always returned and the caller decides whether
  a concrete amount falls inside it (application.go).

THE RANGE:
  min = max(scheme.MinimumInvestment, salary * minPct / 100)   if minPct > 0
      = scheme.MinimumInvestment                               otherwise
  max = min(scheme.MaximumInvestment, salary * maxPct / 100)

DEGENERATE RANGES:
  When the salary cap lands below the scheme's absolute minimum the range
  would be empty. The max is raised up to min in that case, yielding a
  single-point range. The asymmetry is deliberate: the scheme minimum is a
  hard floor that salary-based relaxation cannot lower, so min is never
  clamped down.

SEE ALSO:
  - application.go: Enforces the range on submission
*/
package pension

import "github.com/shopspring/decimal"

// Bounds is the permissible investment range for an employee under a scheme,
// together with the percentages that drove each side (echoed back in
// rejection messages and success payloads).
type Bounds struct {
	Min decimal.Decimal
	Max decimal.Decimal

	MinSalaryPct decimal.Decimal
	MaxSalaryPct decimal.Decimal
}

// Contains reports whether amount falls inside the range.
func (b Bounds) Contains(amount decimal.Decimal) bool {
	return !amount.LessThan(b.Min) && !amount.GreaterThan(b.Max)
}

// ComputeBounds returns the allowed investment range for the scheme given
// the employee's salary. Preconditions: salary >= 0 and the scheme
// invariants hold (Scheme.Validate).
//
// Monotonicity: min is non-decreasing in salary whenever minPct > 0, and
// max is non-decreasing in salary whenever maxPct < 100.
func ComputeBounds(scheme Scheme, salary decimal.Decimal) Bounds {
	min := scheme.MinimumInvestment
	if scheme.MinSalaryPercentage.IsPositive() {
		minBySalary := salary.Mul(scheme.MinSalaryPercentage).Div(hundred)
		if minBySalary.GreaterThan(min) {
			min = minBySalary
		}
	}

	max := salary.Mul(scheme.MaxSalaryPercentage).Div(hundred)
	if scheme.MaximumInvestment.LessThan(max) {
		max = scheme.MaximumInvestment
	}

	// Salary too low relative to the absolute minimum: report the
	// single-point range [min, min] rather than an empty one.
	if max.LessThan(min) {
		max = min
	}

	return Bounds{
		Min:          min,
		Max:          max,
		MinSalaryPct: scheme.MinSalaryPercentage,
		MaxSalaryPct: scheme.MaxSalaryPercentage,
	}
}
