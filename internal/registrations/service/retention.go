package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/audit"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/sanitize"
)

// RecordInstallment appends one payment to the registration ledger and
// moves paid_amount in the same transaction. The ledger can never exceed
// the agreed total.
func (s *Service) RecordInstallment(ctx context.Context, actor identitydomain.Actor, id uuid.UUID, req transport.RecordInstallmentRequest) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.Payment.PaidAmount+req.Amount > reg.Payment.TotalAmount {
			return apperr.Precondition("payment would exceed the agreed total")
		}

		if err := s.repo.InsertInstallmentTx(ctx, tx, repository.InstallmentParams{
			RegistrationID: id,
			Amount:         req.Amount,
			Notes:          sanitize.Text(req.Notes),
			RecordedBy:     actor.ID,
			RecordedAt:     s.now().UTC(),
		}); err != nil {
			return err
		}
		if err := s.repo.AddPaidAmountTx(ctx, tx, id, req.Amount); err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionInstallmentRecorded, audit.SubjectRegistration, id, map[string]any{
			"amount": req.Amount,
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	reg.Payment.PaidAmount += req.Amount
	return transport.ToRegistrationResponse(reg), nil
}

// ListInstallments returns the registration's payment ledger.
func (s *Service) ListInstallments(ctx context.Context, id uuid.UUID) (transport.InstallmentListResponse, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.InstallmentListResponse{}, err
	}
	installments, err := s.repo.ListInstallments(ctx, id)
	if err != nil {
		return transport.InstallmentListResponse{}, err
	}

	items := make([]transport.InstallmentResponse, 0, len(installments))
	for _, inst := range installments {
		items = append(items, transport.InstallmentResponse{
			ID:         inst.ID,
			Amount:     inst.Amount,
			Notes:      inst.Notes,
			RecordedBy: inst.RecordedBy,
			RecordedAt: inst.RecordedAt.Format(time.RFC3339),
		})
	}
	return transport.InstallmentListResponse{
		Items:       items,
		TotalAmount: reg.Payment.TotalAmount,
		PaidAmount:  reg.Payment.PaidAmount,
	}, nil
}

// SoftDelete hides a registration from default listings. Success-registry
// members are protected: only a super admin may remove one.
func (s *Service) SoftDelete(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) error {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if reg.DeletedAt != nil {
		return apperr.Conflict("registration is already deleted")
	}
	if reg.InSuccessRegistry() && !reg.IsTestData && !actor.Capabilities.IsSuperAdmin() {
		return apperr.Protected("success registry records cannot be deleted")
	}

	if err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, audit.ActionRegistrationSoftDeleted, audit.SubjectRegistration, id, nil)
	return nil
}

// Restore reverses a soft delete. Everything but updated_at comes back
// exactly as it was.
func (s *Service) Restore(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, audit.ActionRegistrationRestored, audit.SubjectRegistration, id, nil)
	return nil
}

// Purge hard-deletes a test registration and its children, documents and
// blobs included. Real student records are never purged.
func (s *Service) Purge(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) error {
	if !actor.Capabilities.CanPurge() {
		return apperr.Forbidden("only super admins may purge records")
	}

	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !reg.IsTestData {
		return apperr.Protected("only test records can be purged")
	}

	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.PurgeTx(ctx, tx, id); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionTestRecordDeleted, audit.SubjectRegistration, id, map[string]any{
			"public_id": reg.PublicID,
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("test registration purged", "registration_id", id, "public_id", reg.PublicID)
	return nil
}
