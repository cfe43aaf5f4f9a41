package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/registrations/domain"
)

// CreateRegistrationParams carries the conversion draft for a new
// registration.
type CreateRegistrationParams struct {
	PublicID         string
	LeadID           uuid.UUID
	StudentName      string
	StudentEmail     string
	StudentPhone     string
	TotalAmount      int64
	OriginCounsellor uuid.UUID
	LoanRequired     bool
	IsTestData       bool
}

// InstallmentParams records one payment.
type InstallmentParams struct {
	RegistrationID uuid.UUID
	Amount         int64
	Notes          string
	RecordedBy     uuid.UUID
	RecordedAt     time.Time
}

// LifecycleUpdate is the full writable lifecycle snapshot. Services load
// the row under lock, mutate the snapshot, and write it back in the same
// transaction.
type LifecycleUpdate struct {
	RegistrationID        uuid.UUID
	CurrentOwner          domain.Owner
	LoanRequired          bool
	AdmissionCompleted    bool
	LoanCompleted         bool
	CounsellorCompletedAt *time.Time
	AdmissionStatus       domain.AdmissionStatus
	CancelReason          *string
	TransitionBy          uuid.UUID
	TransitionAt          time.Time
}

// ListParams filters the registration listing.
type ListParams struct {
	Owner          *domain.Owner
	Search         string
	IncludeDeleted bool
	SuccessOnly    bool
	Offset         int
	Limit          int
}

// CreateApplicationParams carries a new (university, course) application.
type CreateApplicationParams struct {
	RegistrationID uuid.UUID
	University     string
	Course         string
	IntakeTerm     string
	Country        string
}

// UpdateApplicationParams patches application academic metadata.
type UpdateApplicationParams struct {
	ID         uuid.UUID
	University *string
	Course     *string
	IntakeTerm *string
	Country    *string
}

// CreateLoanParams carries a new loan application draft.
type CreateLoanParams struct {
	RegistrationID uuid.UUID
	BankName       string
	AppliedAmount  int64
	ProcessingFee  int64
	CoApplicant    domain.CoApplicant
}

// UpdateLoanParams patches loan fields ahead of a status change.
type UpdateLoanParams struct {
	ID               uuid.UUID
	BankName         *string
	AppliedAmount    *int64
	SanctionedAmount *int64
	ProcessingFee    *int64
	CoApplicant      *domain.CoApplicant
}

// LoanPaymentParams records one loan payment.
type LoanPaymentParams struct {
	LoanID     uuid.UUID
	Amount     int64
	Notes      string
	RecordedBy uuid.UUID
	RecordedAt time.Time
}

// Repository is the persistence contract for registrations, applications,
// and loans.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error

	// Registrations.
	CountAll(ctx context.Context, tx pgx.Tx) (int64, error)
	StudentEmailExists(ctx context.Context, tx pgx.Tx, email string) (bool, error)
	CreateTx(ctx context.Context, tx pgx.Tx, params CreateRegistrationParams) (domain.Registration, error)
	MarkLeadConvertedTx(ctx context.Context, tx pgx.Tx, leadID, registrationID uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Registration, error)
	LockRegistration(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Registration, error)
	UpdateLifecycleTx(ctx context.Context, tx pgx.Tx, update LifecycleUpdate) error
	List(ctx context.Context, params ListParams) ([]domain.Registration, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
	PurgeTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Payment ledger.
	InsertInstallmentTx(ctx context.Context, tx pgx.Tx, params InstallmentParams) error
	AddPaidAmountTx(ctx context.Context, tx pgx.Tx, registrationID uuid.UUID, delta int64) error
	ListInstallments(ctx context.Context, registrationID uuid.UUID) ([]domain.Installment, error)

	// Applications.
	CreateApplication(ctx context.Context, params CreateApplicationParams) (domain.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (domain.Application, error)
	ListApplications(ctx context.Context, registrationID uuid.UUID) ([]domain.Application, error)
	UpdateApplication(ctx context.Context, params UpdateApplicationParams) (domain.Application, error)
	SetApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, reason *string) (domain.Application, error)
	SetOfferLetter(ctx context.Context, id uuid.UUID, path string) (domain.Application, error)

	// Loans.
	CreateLoan(ctx context.Context, params CreateLoanParams) (domain.LoanApplication, error)
	GetLoan(ctx context.Context, id uuid.UUID) (domain.LoanApplication, error)
	GetLoanByRegistration(ctx context.Context, registrationID uuid.UUID) (domain.LoanApplication, error)
	LockLoan(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.LoanApplication, error)
	UpdateLoanTx(ctx context.Context, tx pgx.Tx, params UpdateLoanParams) (domain.LoanApplication, error)
	SetLoanStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.LoanStatus) error
	InsertLoanPaymentTx(ctx context.Context, tx pgx.Tx, params LoanPaymentParams) error
	AddLoanPaidTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID, delta int64) error
	ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]domain.LoanPayment, error)
}
