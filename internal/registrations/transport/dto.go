// Package transport defines the request and response shapes of the
// registrations HTTP surface.
package transport

import (
	"time"

	"github.com/google/uuid"

	"educrm_backend/internal/registrations/domain"
)

// ConvertLeadRequest starts a registration from a lead that reached
// converting_to_reg.
type ConvertLeadRequest struct {
	LeadID       uuid.UUID `json:"leadId" validate:"required"`
	StudentName  string    `json:"studentName" validate:"required,min=2,max=200"`
	StudentEmail string    `json:"studentEmail" validate:"required,email"`
	StudentPhone string    `json:"studentPhone" validate:"required,min=7,max=32"`
	TotalAmount  int64     `json:"totalAmount" validate:"required,gt=0"`
	LoanRequired bool      `json:"loanRequired"`
	IsTestData   bool      `json:"isTestData"`
}

// ListRegistrationsRequest filters the registration listing.
type ListRegistrationsRequest struct {
	Owner          string `form:"owner" validate:"omitempty,oneof=counsellor admission loan done"`
	Search         string `form:"search" validate:"omitempty,max=200"`
	IncludeDeleted bool   `form:"includeDeleted"`
	SuccessOnly    bool   `form:"successOnly"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// RecordInstallmentRequest appends one payment to the registration ledger.
type RecordInstallmentRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// SetLoanRequiredRequest toggles the loan leg of the lifecycle.
type SetLoanRequiredRequest struct {
	LoanRequired bool `json:"loanRequired"`
}

// MarkAdmissionCompletedRequest sets or reverts the admission-completed flag.
type MarkAdmissionCompletedRequest struct {
	Completed bool `json:"completed"`
}

// CancelRequest cancels an in-progress admission. The reason is mandatory.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// DeferIntakeRequest pushes the student to a later intake term.
type DeferIntakeRequest struct {
	ToTerm string `json:"toTerm" validate:"required,max=50"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// CreateApplicationRequest adds one (university, course) application.
type CreateApplicationRequest struct {
	University string `json:"university" validate:"required,max=200"`
	Course     string `json:"course" validate:"required,max=200"`
	IntakeTerm string `json:"intakeTerm" validate:"required,max=50"`
	Country    string `json:"country" validate:"required,max=100"`
}

// UpdateApplicationRequest patches application academic metadata.
type UpdateApplicationRequest struct {
	University *string `json:"university" validate:"omitempty,max=200"`
	Course     *string `json:"course" validate:"omitempty,max=200"`
	IntakeTerm *string `json:"intakeTerm" validate:"omitempty,max=50"`
	Country    *string `json:"country" validate:"omitempty,max=100"`
}

// SetApplicationStatusRequest moves an application through its states.
// Reason is enforced server-side for rejected and withdrawn.
type SetApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft submitted approved rejected withdrawn"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// CreateLoanRequest opens the registration's loan application.
type CreateLoanRequest struct {
	BankName      string             `json:"bankName" validate:"required,max=200"`
	AppliedAmount int64              `json:"appliedAmount" validate:"required,gt=0"`
	ProcessingFee int64              `json:"processingFee" validate:"omitempty,gte=0"`
	CoApplicant   CoApplicantRequest `json:"coApplicant"`
}

// UpdateLoanRequest patches loan fields ahead of a status change.
type UpdateLoanRequest struct {
	BankName         *string             `json:"bankName" validate:"omitempty,max=200"`
	AppliedAmount    *int64              `json:"appliedAmount" validate:"omitempty,gt=0"`
	SanctionedAmount *int64              `json:"sanctionedAmount" validate:"omitempty,gte=0"`
	ProcessingFee    *int64              `json:"processingFee" validate:"omitempty,gte=0"`
	CoApplicant      *CoApplicantRequest `json:"coApplicant"`
}

// CoApplicantRequest carries the co-signing relative's details.
type CoApplicantRequest struct {
	Name         string `json:"name" validate:"omitempty,max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	Relation     string `json:"relation" validate:"omitempty,max=100"`
	IncomeSource string `json:"incomeSource" validate:"omitempty,max=200"`
}

// SetLoanStatusRequest requests one step along the loan partial order.
type SetLoanStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=applied approved rejected disbursed"`
}

// RecordLoanPaymentRequest appends one payment to the loan ledger.
type RecordLoanPaymentRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// RegistrationResponse is the API shape of one registration.
type RegistrationResponse struct {
	ID                    uuid.UUID  `json:"id"`
	PublicID              string     `json:"publicId"`
	LeadID                uuid.UUID  `json:"leadId"`
	StudentName           string     `json:"studentName"`
	StudentEmail          string     `json:"studentEmail"`
	StudentPhone          string     `json:"studentPhone"`
	TotalAmount           int64      `json:"totalAmount"`
	PaidAmount            int64      `json:"paidAmount"`
	CurrentOwner          string     `json:"currentOwner"`
	OriginCounsellor      uuid.UUID  `json:"originCounsellor"`
	LastTransitionBy      *uuid.UUID `json:"lastTransitionBy,omitempty"`
	LastTransitionAt      *string    `json:"lastTransitionAt,omitempty"`
	LoanRequired          bool       `json:"loanRequired"`
	AdmissionCompleted    bool       `json:"admissionCompleted"`
	LoanCompleted         bool       `json:"loanCompleted"`
	CounsellorCompletedAt *string    `json:"counsellorCompletedAt,omitempty"`
	AdmissionStatus       string     `json:"admissionStatus"`
	CancelReason          *string    `json:"cancelReason,omitempty"`
	InSuccessRegistry     bool       `json:"inSuccessRegistry"`
	IsTestData            bool       `json:"isTestData"`
	DeletedAt             *string    `json:"deletedAt,omitempty"`
	CreatedAt             string     `json:"createdAt"`
	UpdatedAt             string     `json:"updatedAt"`
}

// RegistrationListResponse is one page of registrations.
type RegistrationListResponse struct {
	Items []RegistrationResponse `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
}

// InstallmentResponse is one payment ledger entry.
type InstallmentResponse struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy uuid.UUID `json:"recordedBy"`
	RecordedAt string    `json:"recordedAt"`
}

// InstallmentListResponse is the full payment ledger plus its totals.
type InstallmentListResponse struct {
	Items       []InstallmentResponse `json:"items"`
	TotalAmount int64                 `json:"totalAmount"`
	PaidAmount  int64                 `json:"paidAmount"`
}

// ApplicationResponse is the API shape of one university application.
type ApplicationResponse struct {
	ID              uuid.UUID `json:"id"`
	RegistrationID  uuid.UUID `json:"registrationId"`
	University      string    `json:"university"`
	Course          string    `json:"course"`
	IntakeTerm      string    `json:"intakeTerm"`
	Country         string    `json:"country"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejectionReason,omitempty"`
	HasOfferLetter  bool      `json:"hasOfferLetter"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

// ApplicationListResponse lists a registration's applications.
type ApplicationListResponse struct {
	Items []ApplicationResponse `json:"items"`
}

// LoanResponse is the API shape of the registration's loan.
type LoanResponse struct {
	ID               uuid.UUID            `json:"id"`
	RegistrationID   uuid.UUID            `json:"registrationId"`
	BankName         string               `json:"bankName"`
	AppliedAmount    int64                `json:"appliedAmount"`
	SanctionedAmount *int64               `json:"sanctionedAmount,omitempty"`
	ProcessingFee    int64                `json:"processingFee"`
	CoApplicant      *CoApplicantResponse `json:"coApplicant,omitempty"`
	Status           string               `json:"status"`
	TotalPaid        int64                `json:"totalPaid"`
	CreatedAt        string               `json:"createdAt"`
	UpdatedAt        string               `json:"updatedAt"`
}

// CoApplicantResponse mirrors CoApplicantRequest on the way out.
type CoApplicantResponse struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Relation     string `json:"relation,omitempty"`
	IncomeSource string `json:"incomeSource,omitempty"`
}

// LoanPaymentResponse is one loan ledger entry.
type LoanPaymentResponse struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Notes      string    `json:"notes,omitempty"`
	RecordedBy uuid.UUID `json:"recordedBy"`
	RecordedAt string    `json:"recordedAt"`
}

// LoanPaymentListResponse is the loan ledger plus its running total.
type LoanPaymentListResponse struct {
	Items     []LoanPaymentResponse `json:"items"`
	TotalPaid int64                 `json:"totalPaid"`
}

// ToRegistrationResponse maps the domain registration to its API shape.
func ToRegistrationResponse(reg domain.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                 reg.ID,
		PublicID:           reg.PublicID,
		LeadID:             reg.LeadID,
		StudentName:        reg.StudentName,
		StudentEmail:       reg.StudentEmail,
		StudentPhone:       reg.StudentPhone,
		TotalAmount:        reg.Payment.TotalAmount,
		PaidAmount:         reg.Payment.PaidAmount,
		CurrentOwner:       string(reg.Lifecycle.CurrentOwner),
		OriginCounsellor:   reg.Lifecycle.OriginCounsellor,
		LastTransitionBy:   reg.Lifecycle.LastTransitionBy,
		LoanRequired:       reg.Lifecycle.LoanRequired,
		AdmissionCompleted: reg.Lifecycle.AdmissionCompleted,
		LoanCompleted:      reg.Lifecycle.LoanCompleted,
		AdmissionStatus:    string(reg.AdmissionStatus),
		CancelReason:       reg.CancelReason,
		InSuccessRegistry:  reg.InSuccessRegistry(),
		IsTestData:         reg.IsTestData,
		CreatedAt:          reg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          reg.UpdatedAt.Format(time.RFC3339),
	}
	resp.LastTransitionAt = formatTimePtr(reg.Lifecycle.LastTransitionAt)
	resp.CounsellorCompletedAt = formatTimePtr(reg.Lifecycle.CounsellorCompletedAt)
	resp.DeletedAt = formatTimePtr(reg.DeletedAt)
	return resp
}

// ToApplicationResponse maps a domain application to its API shape.
func ToApplicationResponse(app domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:              app.ID,
		RegistrationID:  app.RegistrationID,
		University:      app.University,
		Course:          app.Course,
		IntakeTerm:      app.IntakeTerm,
		Country:         app.Country,
		Status:          string(app.Status),
		RejectionReason: app.RejectionReason,
		HasOfferLetter:  app.OfferLetterPath != nil,
		CreatedAt:       app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       app.UpdatedAt.Format(time.RFC3339),
	}
}

// ToLoanResponse maps the domain loan to its API shape.
func ToLoanResponse(loan domain.LoanApplication) LoanResponse {
	resp := LoanResponse{
		ID:               loan.ID,
		RegistrationID:   loan.RegistrationID,
		BankName:         loan.BankName,
		AppliedAmount:    loan.AppliedAmount,
		SanctionedAmount: loan.SanctionedAmount,
		ProcessingFee:    loan.ProcessingFee,
		Status:           string(loan.Status),
		TotalPaid:        loan.TotalPaid,
		CreatedAt:        loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        loan.UpdatedAt.Format(time.RFC3339),
	}
	if !loan.CoApplicant.IsEmpty() {
		resp.CoApplicant = &CoApplicantResponse{
			Name:         loan.CoApplicant.Name,
			Phone:        loan.CoApplicant.Phone,
			Relation:     loan.CoApplicant.Relation,
			IncomeSource: loan.CoApplicant.IncomeSource,
		}
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
