package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Employee is one directory entry. LastLeadAssignedAt drives the
// least-recently-assigned ordering in the assignment engine.
type Employee struct {
	ID                 uuid.UUID
	PublicID           string
	Name               string
	Email              string
	Phone              string
	Role               Role
	Department         Department
	Status             EmployeeStatus
	LastLeadAssignedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewEmployeePublicID generates a public employee identifier of the form
// EMP-<6-digit> with the digits drawn from [100000, 999999].
func NewEmployeePublicID(rng *rand.Rand) string {
	n := 100000 + rng.Intn(900000)
	return fmt.Sprintf("EMP-%06d", n)
}
