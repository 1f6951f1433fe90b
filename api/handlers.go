/*
handlers.go - HTTP request handlers

PURPOSE:
  Implements the REST surface over the pension domain: company and account
  registration, authentication, scheme browsing/creation, application
  submission, admin decisions, and growth projection.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, investment outside bounds, invalid input
  - 401/403: Missing/invalid token, wrong role
  - 404: Record not found
  - 409: Duplicate application, re-deciding a decided application
  - 500: Internal errors
  Bounds violations surface the domain error message verbatim; its phrasing
  (computed bound plus driving salary percentage) is part of the contract
  with existing clients.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - seed.go: Default scheme catalogue
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nivesh/pension-engine/auth"
	"github.com/nivesh/pension-engine/pension"
	"github.com/nivesh/pension-engine/projection"
	"github.com/nivesh/pension-engine/store/sqlite"
)

// Planner bounds enforced at the API boundary, matching the client form.
var (
	plannerMinRate = decimal.NewFromInt(1)
	plannerMaxRate = decimal.NewFromInt(20)
)

const plannerMaxYears = 40

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Tokens *auth.JWTManager
	Apps   *pension.ApplicationService
}

// NewHandler creates a handler over the given store and token manager.
func NewHandler(store *sqlite.Store, tokens *auth.JWTManager, apps *pension.ApplicationService) *Handler {
	if apps == nil {
		apps = &pension.ApplicationService{}
	}
	return &Handler{Store: store, Tokens: tokens, Apps: apps}
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

// CreateCompany registers a company. Companies must exist before admins or
// employees can sign up against them.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "Company name and address are required", nil)
		return
	}

	company := pension.Company{Name: req.Name, Address: req.Address}
	if err := h.Store.CreateCompany(r.Context(), &company); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeError(w, http.StatusConflict, "Company already exists", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create company", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCompanyDTO(&company))
}

// =============================================================================
// EMPLOYEE AUTH HANDLERS
// =============================================================================

// EmployeeSignup registers an employee under an existing company and
// returns a session token.
func (h *Handler) EmployeeSignup(w http.ResponseWriter, r *http.Request) {
	var req EmployeeSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dateOfJoining, err := time.Parse("2006-01-02", req.DateOfJoining)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	salary, err := parseAmount(req.Salary)
	if err != nil || salary.IsNegative() {
		writeError(w, http.StatusBadRequest, "Salary must be a non-negative number", err)
		return
	}

	ctx := r.Context()
	if existing, err := h.Store.GetEmployeeByEmail(ctx, req.Email); err == nil && existing != nil {
		writeError(w, http.StatusBadRequest, "Employee already exists", nil)
		return
	}

	company, err := h.Store.GetCompanyByName(ctx, req.CompanyName)
	if err != nil {
		writeError(w, statusForError(err), "Company not found", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	code, err := h.newEmployeeCode(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to allocate employee code", err)
		return
	}

	emp := pension.Employee{
		EmployeeCode:  code,
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  hash,
		DateOfJoining: dateOfJoining,
		Salary:        salary,
		CompanyID:     company.ID,
	}
	if err := h.Store.CreateEmployee(ctx, &emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	token, err := h.Tokens.Generate(string(emp.ID), string(emp.CompanyID), auth.RoleEmployee)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	dto := toEmployeeDTO(&emp)
	writeJSON(w, http.StatusCreated, AuthResponse{
		Token:    token,
		Msg:      "Employee registered",
		Employee: &dto,
	})
}

// EmployeeSignin authenticates an employee and returns a session token.
func (h *Handler) EmployeeSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.GetEmployeeByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusForbidden, auth.ErrInvalidCredentials.Error(), nil)
		return
	}
	if err := auth.CheckPassword(emp.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusForbidden, auth.ErrInvalidCredentials.Error(), nil)
		return
	}

	token, err := h.Tokens.Generate(string(emp.ID), string(emp.CompanyID), auth.RoleEmployee)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Msg: "Employee has been logged in"})
}

// newEmployeeCode allocates a short unique employee code.
func (h *Handler) newEmployeeCode(ctx context.Context) (string, error) {
	for {
		code := "EMP-" + strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
		taken, err := h.Store.EmployeeCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// EmployeeProfile returns the authenticated employee's record.
func (h *Handler) EmployeeProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	emp, err := h.Store.GetEmployee(r.Context(), pension.EmployeeID(claims.Subject))
	if err != nil {
		writeError(w, statusForError(err), "Employee not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// ListSchemes returns all pension schemes.
func (h *Handler) ListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.Store.ListSchemes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch pension schemes", err)
		return
	}

	dtos := make([]SchemeDTO, len(schemes))
	for i, s := range schemes {
		dtos[i] = toSchemeDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Apply submits an application for a pension scheme on behalf of the
// authenticated employee.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount(req.InvestmentAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Investment amount must be a finite number", err)
		return
	}

	ctx := r.Context()
	scheme, err := h.Store.GetScheme(ctx, pension.SchemeID(req.SchemeID))
	if err != nil {
		writeError(w, statusForError(err), "Pension scheme not found", err)
		return
	}
	emp, err := h.Store.GetEmployee(ctx, pension.EmployeeID(claims.Subject))
	if err != nil {
		writeError(w, statusForError(err), "Employee not found", err)
		return
	}

	app, bounds, err := h.Apps.Submit(emp, *scheme, amount)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}

	// Persist the new application; the store transaction plus unique index
	// serialize concurrent submissions for the same employee.
	if err := h.Store.AddApplication(ctx, emp.ID, *app); err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, ApplyResponse{
		Msg: "Pension scheme applied successfully",
		Data: ApplyResponseData{
			Scheme:         scheme.Name,
			AmountInvested: amount.InexactFloat64(),
			MinAllowed:     bounds.Min.InexactFloat64(),
			MaxAllowed:     bounds.Max.InexactFloat64(),
		},
	})
}

// ListAppliedSchemes returns the employee's applications in application
// order, enriched with the referenced scheme's interest rate and duration.
func (h *Handler) ListAppliedSchemes(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	ctx := r.Context()

	emp, err := h.Store.GetEmployee(ctx, pension.EmployeeID(claims.Subject))
	if err != nil {
		writeError(w, statusForError(err), "Employee not found", err)
		return
	}

	dtos := make([]ApplicationDTO, len(emp.AppliedSchemes))
	for i, app := range emp.AppliedSchemes {
		dto := toApplicationDTO(app)
		if scheme, err := h.Store.GetScheme(ctx, app.SchemeID); err == nil {
			dto.InterestRate = scheme.InterestRate.InexactFloat64()
			dto.Duration = scheme.DurationYears
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN AUTH HANDLERS
// =============================================================================

// AdminSignup registers an administrator for an existing company.
func (h *Handler) AdminSignup(w http.ResponseWriter, r *http.Request) {
	var req AdminSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if existing, err := h.Store.GetAdminByEmail(ctx, req.Email); err == nil && existing != nil {
		writeError(w, http.StatusBadRequest, "Admin already exists", nil)
		return
	}

	company, err := h.Store.GetCompanyByName(ctx, req.CompanyName)
	if err != nil {
		writeError(w, statusForError(err), "Company not found", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	admin := pension.Admin{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CompanyID:    company.ID,
	}
	if err := h.Store.CreateAdmin(ctx, &admin); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create admin", err)
		return
	}

	token, err := h.Tokens.Generate(string(admin.ID), string(admin.CompanyID), auth.RoleAdmin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	dto := toAdminDTO(&admin)
	writeJSON(w, http.StatusCreated, AuthResponse{
		Token: token,
		Msg:   "Admin registered",
		Admin: &dto,
	})
}

// AdminSignin authenticates an admin and returns a session token.
func (h *Handler) AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	admin, err := h.Store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusForbidden, auth.ErrInvalidCredentials.Error(), nil)
		return
	}
	if err := auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusForbidden, auth.ErrInvalidCredentials.Error(), nil)
		return
	}

	token, err := h.Tokens.Generate(string(admin.ID), string(admin.CompanyID), auth.RoleAdmin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Msg: "Admin has been logged in"})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// AdminProfile returns the admin dashboard header for the admin's company.
func (h *Handler) AdminProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	ctx := r.Context()

	company, err := h.Store.GetCompany(ctx, pension.CompanyID(claims.CompanyID))
	if err != nil {
		writeError(w, statusForError(err), "Company not found", err)
		return
	}
	total, err := h.Store.CountEmployeesByCompany(ctx, company.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count employees", err)
		return
	}
	schemes, err := h.Store.CountSchemes(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count schemes", err)
		return
	}

	writeJSON(w, http.StatusOK, AdminProfileDTO{
		Name:           company.Name,
		TotalEmployees: total,
		ActiveSchemes:  schemes,
	})
}

// AdminListEmployees returns all employees of the admin's company with
// their applications.
func (h *Handler) AdminListEmployees(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	employees, err := h.Store.ListEmployeesByCompany(r.Context(), pension.CompanyID(claims.CompanyID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AdminCreateScheme creates a pension scheme.
func (h *Handler) AdminCreateScheme(w http.ResponseWriter, r *http.Request) {
	var req CreateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	for _, v := range []float64{req.MinimumInvestment, req.MaximumInvestment, req.InterestRate,
		req.MinSalaryPercentage, req.MaxSalaryPercentage} {
		if _, err := parseAmount(v); err != nil {
			writeError(w, http.StatusBadRequest, "Scheme values must be finite numbers", err)
			return
		}
	}

	scheme := pension.Scheme{
		Name:                req.Name,
		Description:         req.Description,
		MinimumInvestment:   decimal.NewFromFloat(req.MinimumInvestment),
		MaximumInvestment:   decimal.NewFromFloat(req.MaximumInvestment),
		InterestRate:        decimal.NewFromFloat(req.InterestRate),
		DurationYears:       req.Duration,
		MinSalaryPercentage: decimal.NewFromFloat(req.MinSalaryPercentage),
		MaxSalaryPercentage: decimal.NewFromFloat(req.MaxSalaryPercentage),
		IsGovernmentScheme:  req.IsGovernmentScheme,
	}
	if err := h.Store.CreateScheme(r.Context(), &scheme); err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, toSchemeDTO(&scheme))
}

// DecideApplication accepts or rejects an employee's application, setting
// status and admin note atomically.
func (h *Handler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	employeeID := pension.EmployeeID(chi.URLParam(r, "employeeID"))
	schemeID := pension.SchemeID(chi.URLParam(r, "schemeID"))

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	emp, err := h.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		writeError(w, statusForError(err), "Employee not found", err)
		return
	}
	// Admins only see their own company's employees.
	if string(emp.CompanyID) != claims.CompanyID {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	app, err := h.Apps.Decide(emp, schemeID, pension.ApplicationStatus(req.Status), req.Note)
	if err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}

	if err := h.Store.UpdateApplicationDecision(ctx, emp.ID, schemeID, app.Status, app.AdminNote); err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, DecisionResponse{
		Msg:      fmt.Sprintf("Application %s", strings.ToLower(string(app.Status))),
		Employee: toEmployeeDTO(emp),
	})
}

// =============================================================================
// PROJECTION HANDLER
// =============================================================================

// Projection simulates pension growth for a contribution plan.
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	initial, err := parseAmount(req.InitialInvestment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Initial investment must be a finite number", err)
		return
	}
	contribution, err := parseAmount(req.MonthlyContribution)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Monthly contribution must be a finite number", err)
		return
	}
	rate, err := parseAmount(req.InterestRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Interest rate must be a finite number", err)
		return
	}

	// Planner bounds, matching the client form.
	if rate.LessThan(plannerMinRate) || rate.GreaterThan(plannerMaxRate) {
		writeError(w, http.StatusBadRequest, "Interest rate must be between 1% and 20%", nil)
		return
	}
	if req.Duration < 1 || req.Duration > plannerMaxYears {
		writeError(w, http.StatusBadRequest, "Duration must be between 1 and 40 years", nil)
		return
	}

	result, err := projection.Simulate(projection.Input{
		InitialInvestment:     initial,
		MonthlyContribution:   contribution,
		AnnualInterestRatePct: rate,
		Years:                 req.Duration,
		IsGovernmentScheme:    req.IsGovernmentScheme,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionResponse(result))
}

// =============================================================================
// HELPERS
// =============================================================================

// parseAmount converts a wire float to decimal, rejecting NaN and Inf
// before they can poison downstream arithmetic.
func parseAmount(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, errors.New("value must be a finite number")
	}
	return decimal.NewFromFloat(v), nil
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pension.ErrDuplicateApplication),
		errors.Is(err, pension.ErrAlreadyDecided):
		return http.StatusConflict
	case pension.IsNotFound(err):
		return http.StatusNotFound
	case pension.IsClientError(err),
		errors.Is(err, projection.ErrInvalidProjectionInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
