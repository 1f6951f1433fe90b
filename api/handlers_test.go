package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivesh/pension-engine/api"
	"github.com/nivesh/pension-engine/auth"
	"github.com/nivesh/pension-engine/pension"
	"github.com/nivesh/pension-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router  http.Handler
	store   *sqlite.Store
	handler *api.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store, auth.NewJWTManager("test-secret", time.Hour), nil)
	return &testServer{
		router:  api.NewRouter(handler),
		store:   store,
		handler: handler,
	}
}

// do sends a JSON request through the router and returns the recorder.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// registerCompany creates the company every signup test hangs off.
func (ts *testServer) registerCompany(t *testing.T, name string) api.CompanyDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/companies", "", api.CreateCompanyRequest{
		Name: name, Address: "Bengaluru",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.CompanyDTO](t, rec)
}

func (ts *testServer) signupEmployee(t *testing.T, email, company string, salary float64) (string, api.EmployeeDTO) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/employee/signup", "", api.EmployeeSignupRequest{
		Name:          "Priya Sharma",
		Email:         email,
		Password:      "strong-password",
		DateOfJoining: "2020-04-01",
		Salary:        salary,
		CompanyName:   company,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[api.AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.Employee)
	return resp.Token, *resp.Employee
}

func (ts *testServer) signupAdmin(t *testing.T, email, company string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/signup", "", api.AdminSignupRequest{
		Name: "Admin One", Email: email, Password: "strong-password", CompanyName: company,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[api.AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (ts *testServer) createScheme(t *testing.T, adminToken string, req api.CreateSchemeRequest) api.SchemeDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/schemes", adminToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.SchemeDTO](t, rec)
}

func ppfScheme() api.CreateSchemeRequest {
	return api.CreateSchemeRequest{
		Name:                "Public Provident Fund (PPF)",
		Description:         "Long-term savings scheme",
		MinimumInvestment:   500,
		MaximumInvestment:   150000,
		InterestRate:        7.1,
		Duration:            15,
		MinSalaryPercentage: 0,
		MaxSalaryPercentage: 100,
		IsGovernmentScheme:  true,
	}
}

// =============================================================================
// COMPANIES
// =============================================================================

func TestAPI_CreateCompany(t *testing.T) {
	ts := newTestServer(t)

	company := ts.registerCompany(t, "Acme Industries")
	assert.NotEmpty(t, company.ID)
	assert.Equal(t, "Acme Industries", company.Name)

	// Duplicate name conflicts.
	rec := ts.do(t, http.MethodPost, "/api/companies", "", api.CreateCompanyRequest{
		Name: "Acme Industries", Address: "Delhi",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing fields are rejected.
	rec = ts.do(t, http.MethodPost, "/api/companies", "", api.CreateCompanyRequest{Name: "No Address"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SIGNUP / SIGNIN
// =============================================================================

func TestAPI_EmployeeSignupAndSignin(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")

	token, emp := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	assert.True(t, len(emp.EmployeeCode) > 4 && emp.EmployeeCode[:4] == "EMP-",
		"employee code %q", emp.EmployeeCode)
	assert.Equal(t, float64(50000), emp.Salary)
	assert.Empty(t, emp.AppliedSchemes)

	// The signup token works immediately.
	rec := ts.do(t, http.MethodGet, "/api/employee/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[api.EmployeeDTO](t, rec)
	assert.Equal(t, emp.ID, profile.ID)
	assert.Equal(t, "2020-04-01", profile.DateOfJoining)

	// Signin with the right and wrong password.
	rec = ts.do(t, http.MethodPost, "/api/employee/signin", "", api.SigninRequest{
		Email: "priya@acme.example", Password: "strong-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[api.AuthResponse](t, rec).Token)

	rec = ts.do(t, http.MethodPost, "/api/employee/signin", "", api.SigninRequest{
		Email: "priya@acme.example", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_EmployeeSignup_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")

	base := api.EmployeeSignupRequest{
		Name:          "Priya Sharma",
		Email:         "priya@acme.example",
		Password:      "strong-password",
		DateOfJoining: "2020-04-01",
		Salary:        50000,
		CompanyName:   "Acme Industries",
	}

	// Unknown company.
	req := base
	req.CompanyName = "Nobody Inc"
	rec := ts.do(t, http.MethodPost, "/api/employee/signup", "", req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Weak password.
	req = base
	req.Password = "short"
	rec = ts.do(t, http.MethodPost, "/api/employee/signup", "", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed joining date.
	req = base
	req.DateOfJoining = "01/04/2020"
	rec = ts.do(t, http.MethodPost, "/api/employee/signup", "", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Duplicate email.
	ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	rec = ts.do(t, http.MethodPost, "/api/employee/signup", "", base)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ROLE GATING
// =============================================================================

func TestAPI_RoleGating(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	empToken, _ := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")

	// No token.
	rec := ts.do(t, http.MethodGet, "/api/employee/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = ts.do(t, http.MethodGet, "/api/employee/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token, wrong role, both directions.
	rec = ts.do(t, http.MethodGet, "/api/admin/profile", empToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/employee/profile", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// SCHEMES
// =============================================================================

func TestAPI_SchemeManagement(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	empToken, _ := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)

	created := ts.createScheme(t, adminToken, ppfScheme())
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 7.1, created.InterestRate)

	// Invalid scheme (max below min) rejected.
	bad := ppfScheme()
	bad.Name = "Inverted"
	bad.MinimumInvestment = 1000
	bad.MaximumInvestment = 100
	rec := ts.do(t, http.MethodPost, "/api/admin/schemes", adminToken, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Employees see the catalogue.
	rec = ts.do(t, http.MethodGet, "/api/employee/schemes", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	schemes := decode[[]api.SchemeDTO](t, rec)
	require.Len(t, schemes, 1)
	assert.Equal(t, created.ID, schemes[0].ID)
}

func TestAPI_SeedDefaultSchemes_Idempotent(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")

	rec := ts.do(t, http.MethodPost, "/api/admin/schemes/defaults", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, len(api.DefaultSchemes()), decode[map[string]int](t, rec)["created"])

	// Second run creates nothing.
	rec = ts.do(t, http.MethodPost, "/api/admin/schemes/defaults", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rec)["created"])
}

// =============================================================================
// APPLICATION FLOW
// =============================================================================

func TestAPI_ApplyFlow(t *testing.T) {
	// GIVEN: A company, an admin-created scheme, and a signed-up employee
	// WHEN: The employee applies within bounds
	// THEN: The application lands as Pending with the bounds echoed back

	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	empToken, _ := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	scheme := ts.createScheme(t, adminToken, ppfScheme())

	rec := ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 10000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ApplyResponse](t, rec)
	assert.Equal(t, "Pension scheme applied successfully", resp.Msg)
	assert.Equal(t, scheme.Name, resp.Data.Scheme)
	assert.Equal(t, float64(10000), resp.Data.AmountInvested)
	assert.Equal(t, float64(500), resp.Data.MinAllowed)
	assert.Equal(t, float64(50000), resp.Data.MaxAllowed, "max capped at full salary")

	// The application shows up in the employee's list, enriched.
	rec = ts.do(t, http.MethodGet, "/api/employee/applications", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	apps := decode[[]api.ApplicationDTO](t, rec)
	require.Len(t, apps, 1)
	assert.Equal(t, scheme.ID, apps[0].SchemeID)
	assert.Equal(t, string(pension.StatusPending), apps[0].Status)
	assert.Equal(t, 7.1, apps[0].InterestRate)
	assert.Equal(t, 15, apps[0].Duration)

	// Applying again conflicts.
	rec = ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 10000,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_Apply_OutOfBounds(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	empToken, _ := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)

	epf := ppfScheme()
	epf.Name = "Employee Provident Fund (EPF)"
	epf.MinimumInvestment = 0
	epf.MinSalaryPercentage = 12
	epf.MaxSalaryPercentage = 12
	scheme := ts.createScheme(t, adminToken, epf)

	// Below the salary-derived minimum: the message carries the computed
	// bound and the driving percentage.
	rec := ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 5000,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "Minimum investment for this scheme is ₹6000 (12% of your salary)", errResp.Error)

	// Above the maximum.
	rec = ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 7000,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp = decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "Maximum investment for this scheme is ₹6000 (12% of your salary)", errResp.Error)

	// Unknown scheme.
	rec = ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: "no-such-scheme", InvestmentAmount: 5000,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ADMIN DECISIONS
// =============================================================================

func TestAPI_DecisionFlow(t *testing.T) {
	// Full lifecycle: apply, admin accepts, re-decision conflicts, status
	// visible on the employee side.

	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	empToken, emp := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	scheme := ts.createScheme(t, adminToken, ppfScheme())

	rec := ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 10000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	decisionPath := fmt.Sprintf("/api/admin/employees/%s/applications/%s/decision", emp.ID, scheme.ID)

	rec = ts.do(t, http.MethodPost, decisionPath, adminToken, api.DecisionRequest{
		Status: "Accepted", Note: "verified salary slip",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decision := decode[api.DecisionResponse](t, rec)
	assert.Equal(t, "Application accepted", decision.Msg)
	require.Len(t, decision.Employee.AppliedSchemes, 1)
	assert.Equal(t, "Accepted", decision.Employee.AppliedSchemes[0].Status)
	assert.Equal(t, "verified salary slip", decision.Employee.AppliedSchemes[0].AdminNote)

	// Deciding again conflicts and leaves the first decision in place.
	rec = ts.do(t, http.MethodPost, decisionPath, adminToken, api.DecisionRequest{
		Status: "Rejected", Note: "changed my mind",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employee/applications", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	apps := decode[[]api.ApplicationDTO](t, rec)
	require.Len(t, apps, 1)
	assert.Equal(t, "Accepted", apps[0].Status)
	assert.Equal(t, "verified salary slip", apps[0].AdminNote)
}

func TestAPI_Decision_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	ts.registerCompany(t, "Other Corp")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	otherAdmin := ts.signupAdmin(t, "admin@other.example", "Other Corp")
	empToken, emp := ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	scheme := ts.createScheme(t, adminToken, ppfScheme())

	rec := ts.do(t, http.MethodPost, "/api/employee/applications", empToken, api.ApplyRequest{
		SchemeID: scheme.ID, InvestmentAmount: 10000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	decisionPath := fmt.Sprintf("/api/admin/employees/%s/applications/%s/decision", emp.ID, scheme.ID)

	// A status that is neither Accepted nor Rejected.
	rec = ts.do(t, http.MethodPost, decisionPath, adminToken, api.DecisionRequest{Status: "Pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Deciding a scheme the employee never applied to.
	rec = ts.do(t, http.MethodPost,
		fmt.Sprintf("/api/admin/employees/%s/applications/%s/decision", emp.ID, "no-such-scheme"),
		adminToken, api.DecisionRequest{Status: "Accepted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Another company's admin cannot see the employee at all.
	rec = ts.do(t, http.MethodPost, decisionPath, otherAdmin, api.DecisionRequest{Status: "Accepted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ADMIN DASHBOARD
// =============================================================================

func TestAPI_AdminProfileAndEmployees(t *testing.T) {
	ts := newTestServer(t)
	ts.registerCompany(t, "Acme Industries")
	adminToken := ts.signupAdmin(t, "admin@acme.example", "Acme Industries")
	ts.signupEmployee(t, "priya@acme.example", "Acme Industries", 50000)
	ts.signupEmployee(t, "rahul@acme.example", "Acme Industries", 80000)
	ts.createScheme(t, adminToken, ppfScheme())

	rec := ts.do(t, http.MethodGet, "/api/admin/profile", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[api.AdminProfileDTO](t, rec)
	assert.Equal(t, "Acme Industries", profile.Name)
	assert.Equal(t, 2, profile.TotalEmployees)
	assert.Equal(t, 1, profile.ActiveSchemes)

	rec = ts.do(t, http.MethodGet, "/api/admin/employees", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	employees := decode[[]api.EmployeeDTO](t, rec)
	assert.Len(t, employees, 2)
}

// =============================================================================
// PROJECTION
// =============================================================================

func TestAPI_Projection(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/projection", "", api.ProjectionRequest{
		InitialInvestment:   0,
		MonthlyContribution: 5000,
		InterestRate:        12,
		Duration:            1,
		IsGovernmentScheme:  true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.ProjectionResponse](t, rec)

	require.Len(t, resp.YearlyBreakdown, 1)
	assert.Equal(t, int64(64047), resp.FinalAmount)
	assert.Equal(t, int64(60000), resp.TotalInvestment)
	assert.Equal(t, int64(4047), resp.TotalInterest)
	assert.Equal(t, int64(640), resp.MonthlyPension)
	assert.Equal(t, "12.00", resp.WithdrawalRate)
}

func TestAPI_Projection_PlannerBounds(t *testing.T) {
	ts := newTestServer(t)
	base := api.ProjectionRequest{
		MonthlyContribution: 5000, InterestRate: 8, Duration: 10,
	}

	cases := []struct {
		name   string
		mutate func(*api.ProjectionRequest)
	}{
		{"rate below 1%", func(r *api.ProjectionRequest) { r.InterestRate = 0.5 }},
		{"rate above 20%", func(r *api.ProjectionRequest) { r.InterestRate = 21 }},
		{"zero duration", func(r *api.ProjectionRequest) { r.Duration = 0 }},
		{"duration above 40", func(r *api.ProjectionRequest) { r.Duration = 41 }},
		{"negative contribution", func(r *api.ProjectionRequest) { r.MonthlyContribution = -100 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			rec := ts.do(t, http.MethodPost, "/api/projection", "", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// OPERATIONAL ENDPOINTS
// =============================================================================

func TestAPI_Healthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestAPI_Metrics(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
