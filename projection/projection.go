/*
Package projection simulates pension-fund growth and payout.

PURPOSE:
  Deterministic simulation of a contribution plan against a scheme's
  interest terms. Pure function of its inputs: no hidden state, no clock,
  no randomness - identical inputs always yield identical output.

COMPOUNDING MODEL:
  Monthly compounding within annual reporting. Every month, in this order:
    1. Add the monthly contribution to the running balance
    2. Capitalize one month of interest: balance * rate / 100 / 12
  Interest therefore accrues on the just-added contribution in the same
  month. Reporting is yearly; the internal balance is carried unrounded
  between months and every reported figure is rounded to whole currency
  units at the reporting boundary only.

PAYOUT MODEL:
  Government schemes are modeled as non-depleting corpora: the monthly
  pension is one month of interest on the final balance, principal
  preserved. Private schemes assume full straight-line drawdown over a
  fixed 25-year horizon. Both formulas and the branch are business rules,
  not presentation details.

INPUT HARDENING:
  Malformed numeric inputs (negative amounts, years < 1, negative rate)
  fail fast with ErrInvalidProjectionInput instead of propagating nonsense
  through 480 months of compounding. Saner planner bounds (rate 1-20%,
  years <= 40) are the caller's to enforce.
*/
package projection

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidProjectionInput is returned for malformed simulation inputs.
var ErrInvalidProjectionInput = errors.New("invalid projection input")

// Payout horizon for non-government schemes, in months.
var drawdownMonths = decimal.NewFromInt(25 * 12)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Input describes a contribution plan against a scheme's terms.
type Input struct {
	InitialInvestment     decimal.Decimal
	MonthlyContribution   decimal.Decimal
	AnnualInterestRatePct decimal.Decimal
	Years                 int
	IsGovernmentScheme    bool
}

// Validate rejects inputs the simulation cannot meaningfully run on.
func (in Input) Validate() error {
	if in.InitialInvestment.IsNegative() {
		return fmt.Errorf("%w: initial investment must not be negative", ErrInvalidProjectionInput)
	}
	if in.MonthlyContribution.IsNegative() {
		return fmt.Errorf("%w: monthly contribution must not be negative", ErrInvalidProjectionInput)
	}
	if in.AnnualInterestRatePct.IsNegative() {
		return fmt.Errorf("%w: interest rate must not be negative", ErrInvalidProjectionInput)
	}
	if in.Years < 1 {
		return fmt.Errorf("%w: years must be at least 1", ErrInvalidProjectionInput)
	}
	return nil
}

// YearRow is one year of the growth breakdown. All figures are rounded to
// whole currency units; cumulative columns are rounded cumulative totals,
// not sums of rounded rows.
type YearRow struct {
	Year                   int
	TotalAmount            int64
	YearlyContribution     int64
	YearlyInterest         int64
	CumulativeContribution int64
	CumulativeInterest     int64
}

// Result is the full projection: the yearly breakdown plus summary fields.
type Result struct {
	Years []YearRow

	FinalAmount     int64
	TotalInvestment int64
	TotalInterest   int64
	MonthlyPension  int64

	// WithdrawalRate is the annual payout as a percentage of the corpus,
	// monthlyPension * 12 * 100 / finalAmount, to two decimal places.
	WithdrawalRate decimal.Decimal
}

// Simulate runs the plan year by year and returns the breakdown and
// summary. The only failure mode is input validation.
func Simulate(in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	monthlyRate := in.AnnualInterestRatePct.Div(hundred).Div(twelve)

	balance := in.InitialInvestment
	totalContribution := in.InitialInvestment
	totalInterest := decimal.Zero

	rows := make([]YearRow, 0, in.Years)
	for year := 1; year <= in.Years; year++ {
		yearContribution := decimal.Zero
		yearInterest := decimal.Zero

		for month := 1; month <= 12; month++ {
			// Contribution lands before this month's interest is computed.
			balance = balance.Add(in.MonthlyContribution)
			yearContribution = yearContribution.Add(in.MonthlyContribution)

			interest := balance.Mul(monthlyRate)
			balance = balance.Add(interest)
			yearInterest = yearInterest.Add(interest)
		}

		totalContribution = totalContribution.Add(yearContribution)
		totalInterest = totalInterest.Add(yearInterest)

		rows = append(rows, YearRow{
			Year:                   year,
			TotalAmount:            roundUnit(balance),
			YearlyContribution:     roundUnit(yearContribution),
			YearlyInterest:         roundUnit(yearInterest),
			CumulativeContribution: roundUnit(totalContribution),
			CumulativeInterest:     roundUnit(totalInterest),
		})
	}

	pension := EstimateMonthlyPension(balance, in.AnnualInterestRatePct, in.IsGovernmentScheme)

	withdrawalRate := decimal.Zero
	if balance.IsPositive() {
		withdrawalRate = pension.Mul(twelve).Mul(hundred).Div(balance).Round(2)
	}

	return &Result{
		Years:           rows,
		FinalAmount:     roundUnit(balance),
		TotalInvestment: roundUnit(totalContribution),
		TotalInterest:   roundUnit(totalInterest),
		MonthlyPension:  roundUnit(pension),
		WithdrawalRate:  withdrawalRate,
	}, nil
}

// EstimateMonthlyPension converts a final corpus into a monthly payout.
// Government schemes pay out interest only; private schemes draw the corpus
// down over 25 years.
func EstimateMonthlyPension(finalBalance, annualInterestRatePct decimal.Decimal, isGovernmentScheme bool) decimal.Decimal {
	if isGovernmentScheme {
		return finalBalance.Mul(annualInterestRatePct).Div(hundred).Div(twelve)
	}
	return finalBalance.Div(drawdownMonths)
}

// roundUnit rounds to the nearest whole currency unit, half away from zero.
func roundUnit(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
