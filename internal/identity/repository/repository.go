package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/internal/identity/domain"
	"educrm_backend/platform/apperr"
)

const employeeNotFoundMessage = "employee not found"

const employeeColumns = `id, public_id, name, email, phone, role, department, status, last_lead_assigned_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new employee directory repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new employee.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.Employee, error) {
	query := `
		INSERT INTO crm_employees (public_id, name, email, phone, password_hash, role, department, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING ` + employeeColumns

	row := r.pool.QueryRow(ctx, query,
		params.PublicID, params.Name, params.Email, params.Phone, params.PasswordHash,
		string(params.Role), string(params.Department),
	)
	emp, err := scanEmployee(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Employee{}, apperr.Conflict("employee email already registered")
		}
		return domain.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return emp, nil
}

// GetByID retrieves an employee by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM crm_employees WHERE id = $1`

	emp, err := scanEmployee(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Employee{}, apperr.NotFound(employeeNotFoundMessage)
		}
		return domain.Employee{}, fmt.Errorf("get employee by id: %w", err)
	}
	return emp, nil
}

// GetCredentialsByEmail retrieves an employee and password hash for login.
func (r *Repo) GetCredentialsByEmail(ctx context.Context, email string) (Credentials, error) {
	query := `SELECT ` + employeeColumns + `, password_hash FROM crm_employees WHERE lower(email) = lower($1)`

	var creds Credentials
	var roleStr, deptStr, statusStr string
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&creds.Employee.ID, &creds.Employee.PublicID, &creds.Employee.Name, &creds.Employee.Email,
		&creds.Employee.Phone, &roleStr, &deptStr, &statusStr,
		&creds.Employee.LastLeadAssignedAt, &creds.Employee.CreatedAt, &creds.Employee.UpdatedAt,
		&creds.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, apperr.NotFound(employeeNotFoundMessage)
		}
		return Credentials{}, fmt.Errorf("get employee credentials: %w", err)
	}
	creds.Employee.Role = domain.Role(roleStr)
	creds.Employee.Department = domain.Department(deptStr)
	creds.Employee.Status = domain.EmployeeStatus(statusStr)
	return creds, nil
}

// List retrieves the full directory ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM crm_employees ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var results []domain.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		results = append(results, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return results, nil
}

// Update patches mutable directory fields.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (domain.Employee, error) {
	var role *string
	var department *string
	if params.Role != nil {
		roleStr := string(*params.Role)
		role = &roleStr
		deptStr := string(domain.DepartmentForRole(*params.Role))
		department = &deptStr
	}

	query := `
		UPDATE crm_employees SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			role = COALESCE($4, role),
			department = COALESCE($5, department),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + employeeColumns

	emp, err := scanEmployee(r.pool.QueryRow(ctx, query, params.ID, params.Name, params.Phone, role, department))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Employee{}, apperr.NotFound(employeeNotFoundMessage)
		}
		return domain.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	return emp, nil
}

// SetStatus activates or deactivates an employee account.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.EmployeeStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE crm_employees SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("set employee status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(employeeNotFoundMessage)
	}
	return nil
}

// PublicIDExists checks for public id collisions before insert.
func (r *Repo) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM crm_employees WHERE public_id = $1)`, publicID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check employee public id: %w", err)
	}
	return exists, nil
}

func scanEmployee(row pgx.Row) (domain.Employee, error) {
	var emp domain.Employee
	var roleStr, deptStr, statusStr string
	err := row.Scan(
		&emp.ID, &emp.PublicID, &emp.Name, &emp.Email, &emp.Phone,
		&roleStr, &deptStr, &statusStr,
		&emp.LastLeadAssignedAt, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return domain.Employee{}, err
	}
	emp.Role = domain.Role(roleStr)
	emp.Department = domain.Department(deptStr)
	emp.Status = domain.EmployeeStatus(statusStr)
	return emp, nil
}
