/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts cross the wire as JSON numbers. They are converted to
  decimal.Decimal at the handler boundary; DTOs are pure data carriers and
  never do arithmetic.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/nivesh/pension-engine/pension"
	"github.com/nivesh/pension-engine/projection"
)

// =============================================================================
// SHARED
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse wraps a plain confirmation message.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// =============================================================================
// COMPANIES
// =============================================================================

type CreateCompanyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type CompanyDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedAt string `json:"created_at,omitempty"`
}

// =============================================================================
// AUTH
// =============================================================================

type EmployeeSignupRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	DateOfJoining string  `json:"date_of_joining"`
	Salary        float64 `json:"salary"`
	CompanyName   string  `json:"company_name"`
}

type AdminSignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token after signup/signin.
type AuthResponse struct {
	Token    string       `json:"token"`
	Msg      string       `json:"msg"`
	Employee *EmployeeDTO `json:"employee,omitempty"`
	Admin    *AdminDTO    `json:"admin,omitempty"`
}

// =============================================================================
// EMPLOYEES / ADMINS
// =============================================================================

type EmployeeDTO struct {
	ID             string           `json:"id"`
	EmployeeCode   string           `json:"employee_code"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	DateOfJoining  string           `json:"date_of_joining"`
	Salary         float64          `json:"salary"`
	CompanyID      string           `json:"company_id"`
	AppliedSchemes []ApplicationDTO `json:"applied_schemes"`
}

type AdminDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CompanyID string `json:"company_id"`
}

// AdminProfileDTO is the admin dashboard header: company identity plus
// headline numbers.
type AdminProfileDTO struct {
	Name           string `json:"name"`
	TotalEmployees int    `json:"total_employees"`
	ActiveSchemes  int    `json:"active_schemes"`
}

// =============================================================================
// SCHEMES
// =============================================================================

type SchemeDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	MinimumInvestment   float64 `json:"minimum_investment"`
	MaximumInvestment   float64 `json:"maximum_investment"`
	InterestRate        float64 `json:"interest_rate"`
	Duration            int     `json:"duration"`
	MinSalaryPercentage float64 `json:"min_salary_percentage"`
	MaxSalaryPercentage float64 `json:"max_salary_percentage"`
	IsGovernmentScheme  bool    `json:"is_government_scheme"`
}

type CreateSchemeRequest struct {
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	MinimumInvestment   float64 `json:"minimum_investment"`
	MaximumInvestment   float64 `json:"maximum_investment"`
	InterestRate        float64 `json:"interest_rate"`
	Duration            int     `json:"duration"`
	MinSalaryPercentage float64 `json:"min_salary_percentage"`
	MaxSalaryPercentage float64 `json:"max_salary_percentage"`
	IsGovernmentScheme  bool    `json:"is_government_scheme"`
}

// =============================================================================
// APPLICATIONS
// =============================================================================

type ApplyRequest struct {
	SchemeID         string  `json:"scheme_id"`
	InvestmentAmount float64 `json:"investment_amount"`
}

// ApplyResponse echoes the bounds the submission was validated against.
type ApplyResponse struct {
	Msg  string           `json:"msg"`
	Data ApplyResponseData `json:"data"`
}

type ApplyResponseData struct {
	Scheme         string  `json:"scheme"`
	AmountInvested float64 `json:"amount_invested"`
	MinAllowed     float64 `json:"min_allowed"`
	MaxAllowed     float64 `json:"max_allowed"`
}

type ApplicationDTO struct {
	SchemeID         string  `json:"scheme_id"`
	SchemeName       string  `json:"scheme_name"`
	InvestmentAmount float64 `json:"investment_amount"`
	Status           string  `json:"status"`
	AdminNote        string  `json:"admin_note,omitempty"`
	AppliedAt        string  `json:"applied_at"`

	// Enriched from the referenced scheme for display.
	InterestRate float64 `json:"interest_rate"`
	Duration     int     `json:"duration"`
}

type DecisionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// DecisionResponse returns the updated aggregate after an admin decision.
type DecisionResponse struct {
	Msg      string      `json:"msg"`
	Employee EmployeeDTO `json:"employee"`
}

// =============================================================================
// PROJECTION
// =============================================================================

type ProjectionRequest struct {
	InitialInvestment   float64 `json:"initial_investment"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	InterestRate        float64 `json:"interest_rate"`
	Duration            int     `json:"duration"`
	IsGovernmentScheme  bool    `json:"is_government_scheme"`
}

type ProjectionYearDTO struct {
	Year                   int   `json:"year"`
	TotalAmount            int64 `json:"total_amount"`
	YearlyContribution     int64 `json:"yearly_contribution"`
	YearlyInterest         int64 `json:"yearly_interest"`
	CumulativeContribution int64 `json:"cumulative_contribution"`
	CumulativeInterest     int64 `json:"cumulative_interest"`
}

type ProjectionResponse struct {
	YearlyBreakdown []ProjectionYearDTO `json:"yearly_breakdown"`
	FinalAmount     int64               `json:"final_amount"`
	TotalInvestment int64               `json:"total_investment"`
	TotalInterest   int64               `json:"total_interest"`
	MonthlyPension  int64               `json:"monthly_pension"`
	WithdrawalRate  string              `json:"withdrawal_rate"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toCompanyDTO(c *pension.Company) CompanyDTO {
	return CompanyDTO{
		ID:        string(c.ID),
		Name:      c.Name,
		Address:   c.Address,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toSchemeDTO(s *pension.Scheme) SchemeDTO {
	return SchemeDTO{
		ID:                  string(s.ID),
		Name:                s.Name,
		Description:         s.Description,
		MinimumInvestment:   s.MinimumInvestment.InexactFloat64(),
		MaximumInvestment:   s.MaximumInvestment.InexactFloat64(),
		InterestRate:        s.InterestRate.InexactFloat64(),
		Duration:            s.DurationYears,
		MinSalaryPercentage: s.MinSalaryPercentage.InexactFloat64(),
		MaxSalaryPercentage: s.MaxSalaryPercentage.InexactFloat64(),
		IsGovernmentScheme:  s.IsGovernmentScheme,
	}
}

func toApplicationDTO(app pension.Application) ApplicationDTO {
	return ApplicationDTO{
		SchemeID:         string(app.SchemeID),
		SchemeName:       app.SchemeName,
		InvestmentAmount: app.InvestmentAmount.InexactFloat64(),
		Status:           string(app.Status),
		AdminNote:        app.AdminNote,
		AppliedAt:        app.AppliedAt.Format(time.RFC3339),
	}
}

func toEmployeeDTO(e *pension.Employee) EmployeeDTO {
	apps := make([]ApplicationDTO, len(e.AppliedSchemes))
	for i, app := range e.AppliedSchemes {
		apps[i] = toApplicationDTO(app)
	}
	return EmployeeDTO{
		ID:             string(e.ID),
		EmployeeCode:   e.EmployeeCode,
		Name:           e.Name,
		Email:          e.Email,
		DateOfJoining:  e.DateOfJoining.Format("2006-01-02"),
		Salary:         e.Salary.InexactFloat64(),
		CompanyID:      string(e.CompanyID),
		AppliedSchemes: apps,
	}
}

func toAdminDTO(a *pension.Admin) AdminDTO {
	return AdminDTO{
		ID:        string(a.ID),
		Name:      a.Name,
		Email:     a.Email,
		CompanyID: string(a.CompanyID),
	}
}

func toProjectionResponse(res *projection.Result) ProjectionResponse {
	years := make([]ProjectionYearDTO, len(res.Years))
	for i, y := range res.Years {
		years[i] = ProjectionYearDTO{
			Year:                   y.Year,
			TotalAmount:            y.TotalAmount,
			YearlyContribution:     y.YearlyContribution,
			YearlyInterest:         y.YearlyInterest,
			CumulativeContribution: y.CumulativeContribution,
			CumulativeInterest:     y.CumulativeInterest,
		}
	}
	return ProjectionResponse{
		YearlyBreakdown: years,
		FinalAmount:     res.FinalAmount,
		TotalInvestment: res.TotalInvestment,
		TotalInterest:   res.TotalInterest,
		MonthlyPension:  res.MonthlyPension,
		WithdrawalRate:  res.WithdrawalRate.StringFixed(2),
	}
}
