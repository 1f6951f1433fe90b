/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores companies, admins, employees, pension schemes, and applications.
  The same patterns apply to PostgreSQL in production - only minor SQL
  dialect differences.

KEY TABLES:
  companies:     Registered companies (unique name)
  admins:        Company administrators
  employees:     Employee records with salary and company ownership
  schemes:       Pension scheme definitions (created by seed/admin, never
                 deleted)
  applications:  One row per (employee, scheme) application; status and
                 admin_note are the only mutable columns

UNIQUENESS INVARIANT:
  idx_unique_application enforces at most one application per
  (employee_id, scheme_id). AddApplication additionally runs inside a
  transaction so two concurrent submissions for the same employee cannot
  both pass the duplicate check; the unique index is the backstop.

DECIMAL STORAGE:
  Currency amounts and percentages are stored as TEXT and parsed with
  shopspring/decimal, never as floating point.

WAL MODE:
  The database is opened with WAL for better concurrency: readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/pension.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - pension: Domain types and the not-found/duplicate sentinels mapped here
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/nivesh/pension-engine/pension"
)

// Store implements persistence for all aggregates using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to :memory: would get its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		company_id TEXT NOT NULL REFERENCES companies(id)
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		employee_code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		date_of_joining TEXT NOT NULL,
		salary TEXT NOT NULL,
		company_id TEXT NOT NULL REFERENCES companies(id),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company
		ON employees(company_id);

	CREATE TABLE IF NOT EXISTS schemes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		minimum_investment TEXT NOT NULL,
		maximum_investment TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		duration_years INTEGER NOT NULL,
		min_salary_pct TEXT NOT NULL,
		max_salary_pct TEXT NOT NULL,
		is_government INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Applications are append-only except for the decision columns.
	-- Insertion order (rowid) is the application order.
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		scheme_id TEXT NOT NULL REFERENCES schemes(id),
		scheme_name TEXT NOT NULL,
		investment_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		admin_note TEXT NOT NULL DEFAULT '',
		applied_at TEXT NOT NULL
	);

	-- CRITICAL: at most one application per (employee, scheme).
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_application
		ON applications(employee_id, scheme_id);

	CREATE INDEX IF NOT EXISTS idx_applications_employee
		ON applications(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// COMPANIES
// =============================================================================

// CreateCompany inserts a company, assigning an ID if none is set.
func (s *Store) CreateCompany(ctx context.Context, c *pension.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = pension.CompanyID(uuid.NewString())
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, address, created_at) VALUES (?, ?, ?, ?)`,
		string(c.ID), c.Name, c.Address, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

// GetCompanyByName looks a company up by its unique name.
func (s *Store) GetCompanyByName(ctx context.Context, name string) (*pension.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanCompany(s.db.QueryRowContext(ctx,
		`SELECT id, name, address, created_at FROM companies WHERE name = ?`, name))
}

// GetCompany looks a company up by ID.
func (s *Store) GetCompany(ctx context.Context, id pension.CompanyID) (*pension.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanCompany(s.db.QueryRowContext(ctx,
		`SELECT id, name, address, created_at FROM companies WHERE id = ?`, string(id)))
}

func scanCompany(row *sql.Row) (*pension.Company, error) {
	var c pension.Company
	var id, createdAt string
	if err := row.Scan(&id, &c.Name, &c.Address, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pension.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}
	c.ID = pension.CompanyID(id)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// ADMINS
// =============================================================================

// CreateAdmin inserts an admin, assigning an ID if none is set.
func (s *Store) CreateAdmin(ctx context.Context, a *pension.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = pension.AdminID(uuid.NewString())
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, name, email, password_hash, company_id) VALUES (?, ?, ?, ?, ?)`,
		string(a.ID), a.Name, a.Email, a.PasswordHash, string(a.CompanyID))
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail looks an admin up by email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*pension.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanAdmin(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, company_id FROM admins WHERE email = ?`, email))
}

// GetAdmin looks an admin up by ID.
func (s *Store) GetAdmin(ctx context.Context, id pension.AdminID) (*pension.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanAdmin(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, company_id FROM admins WHERE id = ?`, string(id)))
}

func scanAdmin(row *sql.Row) (*pension.Admin, error) {
	var a pension.Admin
	var id, companyID string
	if err := row.Scan(&id, &a.Name, &a.Email, &a.PasswordHash, &companyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pension.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to scan admin: %w", err)
	}
	a.ID = pension.AdminID(id)
	a.CompanyID = pension.CompanyID(companyID)
	return &a, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployee inserts an employee, assigning an ID if none is set.
func (s *Store) CreateEmployee(ctx context.Context, e *pension.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = pension.EmployeeID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, employee_code, name, email, password_hash, date_of_joining, salary, company_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.EmployeeCode, e.Name, e.Email, e.PasswordHash,
		e.DateOfJoining.Format(time.RFC3339), e.Salary.String(),
		string(e.CompanyID), e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

// GetEmployee loads the full employee aggregate, applications included,
// in application order.
func (s *Store) GetEmployee(ctx context.Context, id pension.EmployeeID) (*pension.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, err := scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT id, employee_code, name, email, password_hash, date_of_joining, salary, company_id, created_at
		 FROM employees WHERE id = ?`, string(id)))
	if err != nil {
		return nil, err
	}
	if err := s.loadApplications(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

// GetEmployeeByEmail loads the aggregate by the unique email.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*pension.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, err := scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT id, employee_code, name, email, password_hash, date_of_joining, salary, company_id, created_at
		 FROM employees WHERE email = ?`, email))
	if err != nil {
		return nil, err
	}
	if err := s.loadApplications(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

// EmployeeCodeExists reports whether an employee code is already taken.
func (s *Store) EmployeeCodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM employees WHERE employee_code = ?`, code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check employee code: %w", err)
	}
	return n > 0, nil
}

// ListEmployeesByCompany returns all employees of a company with their
// applications, in creation order.
func (s *Store) ListEmployeesByCompany(ctx context.Context, companyID pension.CompanyID) ([]*pension.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_code, name, email, password_hash, date_of_joining, salary, company_id, created_at
		 FROM employees WHERE company_id = ? ORDER BY created_at, id`, string(companyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*pension.Employee
	for rows.Next() {
		emp, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, emp := range employees {
		if err := s.loadApplications(ctx, emp); err != nil {
			return nil, err
		}
	}
	return employees, nil
}

// CountEmployeesByCompany returns the number of employees in a company.
func (s *Store) CountEmployeesByCompany(ctx context.Context, companyID pension.CompanyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM employees WHERE company_id = ?`, string(companyID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row *sql.Row) (*pension.Employee, error) {
	emp, err := scanEmployeeRow(row)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, pension.ErrEmployeeNotFound
	}
	return emp, err
}

func scanEmployeeRow(row rowScanner) (*pension.Employee, error) {
	var e pension.Employee
	var id, doj, salary, companyID, createdAt string
	if err := row.Scan(&id, &e.EmployeeCode, &e.Name, &e.Email, &e.PasswordHash,
		&doj, &salary, &companyID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}
	e.ID = pension.EmployeeID(id)
	e.DateOfJoining = parseTime(doj)
	e.Salary = parseDecimal(salary)
	e.CompanyID = pension.CompanyID(companyID)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func (s *Store) loadApplications(ctx context.Context, emp *pension.Employee) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scheme_id, scheme_name, investment_amount, status, admin_note, applied_at
		 FROM applications WHERE employee_id = ? ORDER BY rowid`, string(emp.ID))
	if err != nil {
		return fmt.Errorf("failed to load applications: %w", err)
	}
	defer rows.Close()

	emp.AppliedSchemes = nil
	for rows.Next() {
		var app pension.Application
		var schemeID, amount, status, appliedAt string
		if err := rows.Scan(&schemeID, &app.SchemeName, &amount, &status, &app.AdminNote, &appliedAt); err != nil {
			return fmt.Errorf("failed to scan application: %w", err)
		}
		app.SchemeID = pension.SchemeID(schemeID)
		app.InvestmentAmount = parseDecimal(amount)
		app.Status = pension.ApplicationStatus(status)
		app.AppliedAt = parseTime(appliedAt)
		emp.AppliedSchemes = append(emp.AppliedSchemes, app)
	}
	return rows.Err()
}

// =============================================================================
// SCHEMES
// =============================================================================

// CreateScheme inserts a scheme after validating its invariants.
func (s *Store) CreateScheme(ctx context.Context, sc *pension.Scheme) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.ID == "" {
		sc.ID = pension.SchemeID(uuid.NewString())
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schemes (id, name, description, minimum_investment, maximum_investment,
		                      interest_rate, duration_years, min_salary_pct, max_salary_pct,
		                      is_government, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sc.ID), sc.Name, sc.Description,
		sc.MinimumInvestment.String(), sc.MaximumInvestment.String(),
		sc.InterestRate.String(), sc.DurationYears,
		sc.MinSalaryPercentage.String(), sc.MaxSalaryPercentage.String(),
		boolToInt(sc.IsGovernmentScheme), sc.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert scheme: %w", err)
	}
	return nil
}

// GetScheme looks a scheme up by ID.
func (s *Store) GetScheme(ctx context.Context, id pension.SchemeID) (*pension.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, minimum_investment, maximum_investment,
		        interest_rate, duration_years, min_salary_pct, max_salary_pct,
		        is_government, created_at
		 FROM schemes WHERE id = ?`, string(id))

	sc, err := scanScheme(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pension.ErrSchemeNotFound
		}
		return nil, err
	}
	return sc, nil
}

// ListSchemes returns all schemes in creation order.
func (s *Store) ListSchemes(ctx context.Context) ([]*pension.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, minimum_investment, maximum_investment,
		        interest_rate, duration_years, min_salary_pct, max_salary_pct,
		        is_government, created_at
		 FROM schemes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []*pension.Scheme
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, sc)
	}
	return schemes, rows.Err()
}

// CountSchemes returns the number of schemes. Used by idempotent seeding.
func (s *Store) CountSchemes(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schemes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count schemes: %w", err)
	}
	return n, nil
}

func scanScheme(row rowScanner) (*pension.Scheme, error) {
	var sc pension.Scheme
	var id, minInv, maxInv, rate, minPct, maxPct, createdAt string
	var isGov int
	if err := row.Scan(&id, &sc.Name, &sc.Description, &minInv, &maxInv,
		&rate, &sc.DurationYears, &minPct, &maxPct, &isGov, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan scheme: %w", err)
	}
	sc.ID = pension.SchemeID(id)
	sc.MinimumInvestment = parseDecimal(minInv)
	sc.MaximumInvestment = parseDecimal(maxInv)
	sc.InterestRate = parseDecimal(rate)
	sc.MinSalaryPercentage = parseDecimal(minPct)
	sc.MaxSalaryPercentage = parseDecimal(maxPct)
	sc.IsGovernmentScheme = isGov != 0
	sc.CreatedAt = parseTime(createdAt)
	return &sc, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// AddApplication persists a newly submitted application. It runs inside a
// transaction: the duplicate check and the insert are atomic per employee,
// and the unique index turns any race that slips through into
// ErrDuplicateApplication rather than a second row.
func (s *Store) AddApplication(ctx context.Context, employeeID pension.EmployeeID, app pension.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM applications WHERE employee_id = ? AND scheme_id = ?`,
		string(employeeID), string(app.SchemeID)).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check existing application: %w", err)
	}
	if n > 0 {
		return pension.ErrDuplicateApplication
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications (id, employee_id, scheme_id, scheme_name, investment_amount, status, admin_note, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(employeeID), string(app.SchemeID), app.SchemeName,
		app.InvestmentAmount.String(), string(app.Status), app.AdminNote,
		app.AppliedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return pension.ErrDuplicateApplication
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}

	return tx.Commit()
}

// UpdateApplicationDecision sets status and admin note together, touching
// no other column.
func (s *Store) UpdateApplicationDecision(ctx context.Context, employeeID pension.EmployeeID, schemeID pension.SchemeID, status pension.ApplicationStatus, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, admin_note = ? WHERE employee_id = ? AND scheme_id = ?`,
		string(status), note, string(employeeID), string(schemeID))
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pension.ErrApplicationNotFound
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
