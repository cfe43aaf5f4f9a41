package repository

import (
	"context"

	"educrm_backend/internal/identity/domain"

	"github.com/google/uuid"
)

// CreateParams carries the fields needed to insert an employee.
type CreateParams struct {
	PublicID     string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         domain.Role
	Department   domain.Department
}

// UpdateParams carries optional fields for a directory update.
type UpdateParams struct {
	ID    uuid.UUID
	Name  *string
	Phone *string
	Role  *domain.Role
}

// Credentials pairs an employee with their stored password hash.
type Credentials struct {
	Employee     domain.Employee
	PasswordHash string
}

// Repository is the persistence contract for the employee directory.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (domain.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Employee, error)
	GetCredentialsByEmail(ctx context.Context, email string) (Credentials, error)
	List(ctx context.Context) ([]domain.Employee, error)
	Update(ctx context.Context, params UpdateParams) (domain.Employee, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.EmployeeStatus) error
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
}
