/*
seed.go - Default pension scheme catalogue

PURPOSE:
  Loads the standard Indian government scheme catalogue so a fresh database
  is immediately usable. Seeding is idempotent: schemes already present
  (matched by name) are skipped.
*/
package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nivesh/pension-engine/pension"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// DefaultSchemes returns the built-in government scheme catalogue.
func DefaultSchemes() []pension.Scheme {
	return []pension.Scheme{
		{
			Name:                "Employee Provident Fund (EPF)",
			Description:         "Mandatory retirement savings scheme for salaried employees",
			MinimumInvestment:   dec(0),
			MaximumInvestment:   dec(150000),
			InterestRate:        dec(8.15),
			DurationYears:       35,
			MinSalaryPercentage: dec(12),
			MaxSalaryPercentage: dec(12),
			IsGovernmentScheme:  true,
		},
		{
			Name:                "National Pension System (NPS)",
			Description:         "Voluntary long-term retirement savings scheme",
			MinimumInvestment:   dec(6000),
			MaximumInvestment:   dec(200000),
			InterestRate:        dec(9.0),
			DurationYears:       40,
			MinSalaryPercentage: dec(0),
			MaxSalaryPercentage: dec(10),
			IsGovernmentScheme:  true,
		},
		{
			Name:                "Public Provident Fund (PPF)",
			Description:         "Long-term savings scheme with tax benefits",
			MinimumInvestment:   dec(500),
			MaximumInvestment:   dec(150000),
			InterestRate:        dec(7.1),
			DurationYears:       15,
			MinSalaryPercentage: dec(0),
			MaxSalaryPercentage: dec(100),
			IsGovernmentScheme:  true,
		},
		{
			Name:                "Atal Pension Yojana (APY)",
			Description:         "Pension scheme focused on unorganized sector workers",
			MinimumInvestment:   dec(42),
			MaximumInvestment:   dec(1250),
			InterestRate:        dec(7.5),
			DurationYears:       20,
			MinSalaryPercentage: dec(0),
			MaxSalaryPercentage: dec(100),
			IsGovernmentScheme:  true,
		},
		{
			Name:                "Senior Citizens Savings Scheme (SCSS)",
			Description:         "Scheme for senior citizens offering regular income",
			MinimumInvestment:   dec(1000),
			MaximumInvestment:   dec(1500000),
			InterestRate:        dec(7.4),
			DurationYears:       5,
			MinSalaryPercentage: dec(0),
			MaxSalaryPercentage: dec(100),
			IsGovernmentScheme:  true,
		},
	}
}

// SeedDefaults inserts any default scheme not already present. Returns the
// number of schemes created. Called from the admin endpoint and at startup
// on an empty database.
func (h *Handler) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := h.Store.ListSchemes(ctx)
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(existing))
	for _, s := range existing {
		present[s.Name] = true
	}

	created := 0
	for _, s := range DefaultSchemes() {
		if present[s.Name] {
			continue
		}
		scheme := s
		if err := h.Store.CreateScheme(ctx, &scheme); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedDefaultSchemes loads the default scheme catalogue.
func (h *Handler) SeedDefaultSchemes(w http.ResponseWriter, r *http.Request) {
	created, err := h.SeedDefaults(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed default schemes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}
