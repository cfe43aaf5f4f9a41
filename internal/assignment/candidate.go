// Package assignment implements the automatic lead assignment engine.
// New leads are routed to the least-recently-assigned eligible employee;
// the claim is a single transaction so two workers can never hand the
// same lead to two people or overload one employee.
package assignment

import (
	"time"

	"github.com/google/uuid"
)

// MaxOpenLeads is the per-employee cap on concurrently assigned open leads.
const MaxOpenLeads = 10

// Candidate is one eligible employee with their current open-lead load,
// as locked by the claim transaction.
type Candidate struct {
	EmployeeID         uuid.UUID
	LastLeadAssignedAt *time.Time
	OpenLeads          int
}

// Pick returns the first candidate under the open-lead cap. Candidates
// arrive ordered least-recently-assigned first (never-assigned employees
// ahead of everyone, then by id for a stable tiebreak), so the first
// one with capacity wins.
func Pick(candidates []Candidate) (Candidate, bool) {
	for _, candidate := range candidates {
		if candidate.OpenLeads < MaxOpenLeads {
			return candidate, true
		}
	}
	return Candidate{}, false
}
