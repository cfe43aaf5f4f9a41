package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/audit"
	"educrm_backend/internal/events"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/phone"
	"educrm_backend/platform/sanitize"
)

// CreateLoan opens the registration's loan application. The registration
// must require a loan; the unique index keeps it to one per registration.
func (s *Service) CreateLoan(ctx context.Context, actor identitydomain.Actor, registrationID uuid.UUID, req transport.CreateLoanRequest) (transport.LoanResponse, error) {
	reg, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return transport.LoanResponse{}, err
	}
	if err := requireOwner(actor, reg); err != nil {
		return transport.LoanResponse{}, err
	}
	if !reg.Lifecycle.LoanRequired {
		return transport.LoanResponse{}, apperr.Precondition("registration does not require a loan")
	}
	if err := domain.ValidateLoanAmounts(req.AppliedAmount, nil); err != nil {
		return transport.LoanResponse{}, err
	}

	loan, err := s.repo.CreateLoan(ctx, repository.CreateLoanParams{
		RegistrationID: registrationID,
		BankName:       sanitize.Text(req.BankName),
		AppliedAmount:  req.AppliedAmount,
		ProcessingFee:  req.ProcessingFee,
		CoApplicant:    coApplicantFromRequest(req.CoApplicant),
	})
	if err != nil {
		return transport.LoanResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionLoanStatusChanged, audit.SubjectLoan, loan.ID, map[string]any{
		"registration_id": registrationID.String(),
		"to":              string(domain.LoanDraft),
	})
	return transport.ToLoanResponse(loan), nil
}

// GetLoanByRegistration returns the registration's loan application.
func (s *Service) GetLoanByRegistration(ctx context.Context, registrationID uuid.UUID) (transport.LoanResponse, error) {
	loan, err := s.repo.GetLoanByRegistration(ctx, registrationID)
	if err != nil {
		return transport.LoanResponse{}, err
	}
	return transport.ToLoanResponse(loan), nil
}

// UpdateLoan patches loan fields ahead of a status change. The row is locked
// so the patched values are validated against what is actually stored:
// sanctioned ≤ applied holds under concurrency, and the co-applicant cannot
// be cleared once the loan is approved or disbursed.
func (s *Service) UpdateLoan(ctx context.Context, actor identitydomain.Actor, loanID uuid.UUID, req transport.UpdateLoanRequest) (transport.LoanResponse, error) {
	var updated domain.LoanApplication
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		loan, err := s.repo.LockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		reg, err := s.repo.GetByID(ctx, loan.RegistrationID)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, reg); err != nil {
			return err
		}

		applied := loan.AppliedAmount
		if req.AppliedAmount != nil {
			applied = *req.AppliedAmount
		}
		sanctioned := loan.SanctionedAmount
		if req.SanctionedAmount != nil {
			sanctioned = req.SanctionedAmount
		}
		if err := domain.ValidateLoanAmounts(applied, sanctioned); err != nil {
			return err
		}

		params := repository.UpdateLoanParams{
			ID:               loanID,
			BankName:         sanitizePtr(req.BankName),
			AppliedAmount:    req.AppliedAmount,
			SanctionedAmount: req.SanctionedAmount,
			ProcessingFee:    req.ProcessingFee,
		}
		if req.CoApplicant != nil {
			co := coApplicantFromRequest(*req.CoApplicant)
			if co.IsEmpty() && (loan.Status == domain.LoanApproved || loan.Status == domain.LoanDisbursed) {
				return apperr.Precondition("an approved loan must keep a co-applicant")
			}
			params.CoApplicant = &co
		}

		updated, err = s.repo.UpdateLoanTx(ctx, tx, params)
		if err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLoanUpdated, audit.SubjectLoan, loanID, map[string]any{
			"registration_id": loan.RegistrationID.String(),
		})
		return nil
	})
	if err != nil {
		return transport.LoanResponse{}, err
	}
	return transport.ToLoanResponse(updated), nil
}

// SetLoanStatus requests one step along the loan partial order. The row is
// locked so concurrent transitions serialize; the loser re-reads a state
// the order no longer permits.
func (s *Service) SetLoanStatus(ctx context.Context, actor identitydomain.Actor, loanID uuid.UUID, status domain.LoanStatus) (transport.LoanResponse, error) {
	var loan domain.LoanApplication
	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		loan, err = s.repo.LockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		reg, err = s.repo.GetByID(ctx, loan.RegistrationID)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, reg); err != nil {
			return err
		}
		if err := domain.ValidateLoanTransition(loan, status); err != nil {
			return err
		}
		if err := s.repo.SetLoanStatusTx(ctx, tx, loanID, status); err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLoanStatusChanged, audit.SubjectLoan, loanID, map[string]any{
			"from": string(loan.Status),
			"to":   string(status),
		})
		return nil
	})
	if err != nil {
		return transport.LoanResponse{}, err
	}

	if status == domain.LoanDisbursed {
		amount := loan.AppliedAmount
		if loan.SanctionedAmount != nil {
			amount = *loan.SanctionedAmount
		}
		s.bus.Publish(ctx, events.LoanDisbursed{
			BaseEvent:      events.NewBaseEvent(),
			LoanID:         loanID,
			RegistrationID: loan.RegistrationID,
			PublicID:       reg.PublicID,
			BankName:       loan.BankName,
			Amount:         amount,
		})
	}

	loan.Status = status
	return transport.ToLoanResponse(loan), nil
}

// RecordLoanPayment appends one payment and moves total_paid in the same
// transaction, keeping the ledger and the running total equal.
func (s *Service) RecordLoanPayment(ctx context.Context, actor identitydomain.Actor, loanID uuid.UUID, req transport.RecordLoanPaymentRequest) (transport.LoanResponse, error) {
	var loan domain.LoanApplication
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		loan, err = s.repo.LockLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		reg, err := s.repo.GetByID(ctx, loan.RegistrationID)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, reg); err != nil {
			return err
		}
		if loan.Status == domain.LoanRejected {
			return apperr.Precondition("cannot record a payment on a rejected loan")
		}

		if err := s.repo.InsertLoanPaymentTx(ctx, tx, repository.LoanPaymentParams{
			LoanID:     loanID,
			Amount:     req.Amount,
			Notes:      sanitize.Text(req.Notes),
			RecordedBy: actor.ID,
			RecordedAt: s.now().UTC(),
		}); err != nil {
			return err
		}
		if err := s.repo.AddLoanPaidTx(ctx, tx, loanID, req.Amount); err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLoanPaymentRecorded, audit.SubjectLoan, loanID, map[string]any{
			"amount": req.Amount,
		})
		return nil
	})
	if err != nil {
		return transport.LoanResponse{}, err
	}

	loan.TotalPaid += req.Amount
	return transport.ToLoanResponse(loan), nil
}

// ListLoanPayments returns the loan's payment ledger.
func (s *Service) ListLoanPayments(ctx context.Context, loanID uuid.UUID) (transport.LoanPaymentListResponse, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return transport.LoanPaymentListResponse{}, err
	}
	payments, err := s.repo.ListLoanPayments(ctx, loanID)
	if err != nil {
		return transport.LoanPaymentListResponse{}, err
	}

	items := make([]transport.LoanPaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, transport.LoanPaymentResponse{
			ID:         p.ID,
			Amount:     p.Amount,
			Notes:      p.Notes,
			RecordedBy: p.RecordedBy,
			RecordedAt: p.RecordedAt.Format(time.RFC3339),
		})
	}
	return transport.LoanPaymentListResponse{Items: items, TotalPaid: loan.TotalPaid}, nil
}

func coApplicantFromRequest(req transport.CoApplicantRequest) domain.CoApplicant {
	co := domain.CoApplicant{
		Name:         sanitize.Text(req.Name),
		Relation:     sanitize.Text(req.Relation),
		IncomeSource: sanitize.Text(req.IncomeSource),
	}
	if req.Phone != "" {
		co.Phone = phone.NormalizeE164(req.Phone)
	}
	return co
}
