package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"educrm_backend/platform/apperr"
)

// LoanStatus is the state of the loan application.
type LoanStatus string

const (
	LoanDraft     LoanStatus = "draft"
	LoanApplied   LoanStatus = "applied"
	LoanApproved  LoanStatus = "approved"
	LoanDisbursed LoanStatus = "disbursed"
	LoanRejected  LoanStatus = "rejected"
)

// loanTransitions is the partial order draft → applied → (rejected |
// approved → disbursed).
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanDraft:    {LoanApplied},
	LoanApplied:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanDisbursed},
}

// CoApplicant is the co-signing relative required before approval.
type CoApplicant struct {
	Name         string
	Phone        string
	Relation     string
	IncomeSource string
}

// IsEmpty reports whether no co-applicant has been recorded.
func (c CoApplicant) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == ""
}

// LoanApplication is the at-most-one loan attached to a registration with
// loanRequired set.
type LoanApplication struct {
	ID               uuid.UUID
	RegistrationID   uuid.UUID
	BankName         string
	AppliedAmount    int64
	SanctionedAmount *int64
	ProcessingFee    int64
	CoApplicant      CoApplicant
	Status           LoanStatus
	TotalPaid        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LoanPayment is one entry in the loan payments ledger.
type LoanPayment struct {
	ID         uuid.UUID
	LoanID     uuid.UUID
	Amount     int64
	Notes      string
	RecordedBy uuid.UUID
	RecordedAt time.Time
}

// ValidateLoanTransition checks the requested status change against the
// partial order and the co-applicant invariant.
func ValidateLoanTransition(loan LoanApplication, to LoanStatus) error {
	allowed := false
	for _, next := range loanTransitions[loan.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.Precondition("loan status cannot move from " + string(loan.Status) + " to " + string(to))
	}

	if (to == LoanApproved || to == LoanDisbursed) && loan.CoApplicant.IsEmpty() {
		return apperr.Precondition("co-applicant is required before approval")
	}
	return nil
}

// ValidateLoanAmounts enforces sanctioned ≤ applied on every write.
func ValidateLoanAmounts(applied int64, sanctioned *int64) error {
	if applied <= 0 {
		return apperr.Validation("applied amount must be positive")
	}
	if sanctioned != nil && *sanctioned > applied {
		return apperr.Precondition("sanctioned amount cannot exceed applied amount")
	}
	return nil
}
