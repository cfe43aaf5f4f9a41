package transport

import (
	"time"

	"github.com/google/uuid"

	"educrm_backend/internal/identity/domain"
)

// LoginRequest contains employee login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse carries the issued access token and the employee profile.
type LoginResponse struct {
	AccessToken string           `json:"accessToken"`
	ExpiresIn   int64            `json:"expiresIn"`
	Employee    EmployeeResponse `json:"employee"`
}

// CreateEmployeeRequest contains data for creating a directory entry.
type CreateEmployeeRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

// UpdateEmployeeRequest contains optional fields for a directory update.
type UpdateEmployeeRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role  *string `json:"role,omitempty"`
}

// SetStatusRequest activates or deactivates an employee account.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// EmployeeResponse represents an employee in API responses.
type EmployeeResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PublicID           string     `json:"publicId"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Role               string     `json:"role"`
	Department         string     `json:"department"`
	Status             string     `json:"status"`
	LastLeadAssignedAt *time.Time `json:"lastLeadAssignedAt,omitempty"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
}

// EmployeeListResponse wraps the directory listing.
type EmployeeListResponse struct {
	Items []EmployeeResponse `json:"items"`
	Total int                `json:"total"`
}

// ToEmployeeResponse maps a domain employee onto the API shape.
func ToEmployeeResponse(emp domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                 emp.ID,
		PublicID:           emp.PublicID,
		Name:               emp.Name,
		Email:              emp.Email,
		Phone:              emp.Phone,
		Role:               string(emp.Role),
		Department:         string(emp.Department),
		Status:             string(emp.Status),
		LastLeadAssignedAt: emp.LastLeadAssignedAt,
		CreatedAt:          emp.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          emp.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
