// Package domain holds the registration lifecycle model: ownership states,
// the payment ledger, applications, and the loan state machine. Transition
// legality is decided here; execution is the repository's job.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Owner is the department currently responsible for a registration.
type Owner string

const (
	OwnerCounsellor Owner = "counsellor"
	OwnerAdmission  Owner = "admission"
	OwnerLoan       Owner = "loan"
	OwnerDone       Owner = "done"
)

// AdmissionStatus is the overall outcome of the admission process.
type AdmissionStatus string

const (
	AdmissionInProgress AdmissionStatus = "in_progress"
	AdmissionCancelled  AdmissionStatus = "cancelled"
	AdmissionDeferred   AdmissionStatus = "deferred"
	AdmissionSuccess    AdmissionStatus = "success"
)

// Installment is one recorded payment against the registration total.
type Installment struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	Amount         int64
	Notes          string
	RecordedBy     uuid.UUID
	RecordedAt     time.Time
}

// Payment is the registration's money ledger. PaidAmount always equals the
// sum of the installments; both are written in the same transaction.
type Payment struct {
	TotalAmount int64
	PaidAmount  int64
}

// Lifecycle is the ownership record of a registration.
type Lifecycle struct {
	CurrentOwner          Owner
	OriginCounsellor      uuid.UUID
	LastTransitionBy      *uuid.UUID
	LastTransitionAt      *time.Time
	LoanRequired          bool
	AdmissionCompleted    bool
	LoanCompleted         bool
	CounsellorCompletedAt *time.Time
}

// Registration is one student's journey from converted lead to done.
type Registration struct {
	ID              uuid.UUID
	PublicID        string
	LeadID          uuid.UUID
	StudentName     string
	StudentEmail    string
	StudentPhone    string
	Payment         Payment
	Lifecycle       Lifecycle
	AdmissionStatus AdmissionStatus
	CancelReason    *string
	IsTestData      bool
	DeletedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPublicID builds the student-facing identifier: STU-<year>-<1000+n>,
// where n counts every registration ever created, soft-deleted included.
func NewPublicID(year int, priorCount int64) string {
	return fmt.Sprintf("STU-%d-%d", year, 1000+priorCount)
}

// InSuccessRegistry reports whether the registration belongs to the success
// registry. Membership is derived, never stored.
func (r Registration) InSuccessRegistry() bool {
	if r.DeletedAt != nil {
		return false
	}
	if !r.Lifecycle.AdmissionCompleted {
		return false
	}
	return !r.Lifecycle.LoanRequired || r.Lifecycle.LoanCompleted
}

// OwnerAfterAdmission is where ownership goes once admission completes.
func OwnerAfterAdmission(loanRequired bool) Owner {
	if loanRequired {
		return OwnerLoan
	}
	return OwnerDone
}
