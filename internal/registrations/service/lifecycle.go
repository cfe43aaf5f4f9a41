package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/audit"
	documentsdomain "educrm_backend/internal/documents/domain"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/events"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/sanitize"
)

// CompleteCounsellorTask hands the registration from counsellor to
// admission. The counsellor-stage document set must be fully verified
// first; missing documents are returned in the error details.
func (s *Service) CompleteCounsellorTask(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.Lifecycle.CurrentOwner != domain.OwnerCounsellor {
			return apperr.Precondition("registration is past the counsellor stage")
		}

		// Checked under the row lock: the hand-off commits against the
		// verified set as it stands at transition time.
		completeness, err := s.gate.Completeness(ctx, documentsdomain.OwnerRegistration, id, requirements.StageCounsellor)
		if err != nil {
			return err
		}
		if !completeness.Complete {
			return apperr.Precondition("required documents are not yet verified").
				WithDetails(map[string]any{"missing": completeness.Missing})
		}

		now := s.now().UTC()
		update := lifecycleUpdateFrom(reg, actor.ID, now)
		update.CurrentOwner = domain.OwnerAdmission
		update.CounsellorCompletedAt = &now
		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionWorkflowTransition, audit.SubjectRegistration, id, map[string]any{
			"from": string(domain.OwnerCounsellor),
			"to":   string(domain.OwnerAdmission),
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	s.publishTransition(ctx, reg, domain.OwnerCounsellor, domain.OwnerAdmission, actor.ID)
	return transport.ToRegistrationResponse(reg), nil
}

// MarkAdmissionCompleted sets or reverts the admission-completed flag.
// Completion routes ownership to loan when a loan is required, otherwise
// straight to done with admission_status=success.
func (s *Service) MarkAdmissionCompleted(ctx context.Context, actor identitydomain.Actor, id uuid.UUID, completed bool) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	var fromOwner, toOwner domain.Owner
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		update := lifecycleUpdateFrom(reg, actor.ID, s.now().UTC())
		fromOwner = reg.Lifecycle.CurrentOwner
		if completed {
			if reg.Lifecycle.CurrentOwner != domain.OwnerAdmission {
				return apperr.Precondition("registration is not in the admission stage")
			}
			update.AdmissionCompleted = true
			update.CurrentOwner = domain.OwnerAfterAdmission(reg.Lifecycle.LoanRequired)
			if update.CurrentOwner == domain.OwnerDone {
				update.AdmissionStatus = domain.AdmissionSuccess
			}
		} else {
			if !reg.Lifecycle.AdmissionCompleted {
				return apperr.Precondition("admission is not marked completed")
			}
			update.AdmissionCompleted = false
			update.CurrentOwner = domain.OwnerAdmission
			update.AdmissionStatus = domain.AdmissionInProgress
		}
		toOwner = update.CurrentOwner

		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionAdmissionCompleted, audit.SubjectRegistration, id, map[string]any{
			"completed": completed,
			"owner":     string(update.CurrentOwner),
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	if fromOwner != toOwner {
		s.publishTransition(ctx, reg, fromOwner, toOwner, actor.ID)
	}
	return transport.ToRegistrationResponse(reg), nil
}

// MarkLoanCompleted closes the loan leg and finishes the workflow. The
// registration must be owned by loan and actually require a loan.
func (s *Service) MarkLoanCompleted(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.Lifecycle.CurrentOwner != domain.OwnerLoan || !reg.Lifecycle.LoanRequired {
			return apperr.Precondition("registration has no open loan stage")
		}

		update := lifecycleUpdateFrom(reg, actor.ID, s.now().UTC())
		update.LoanCompleted = true
		update.CurrentOwner = domain.OwnerDone
		update.AdmissionStatus = domain.AdmissionSuccess
		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLoanCompleted, audit.SubjectRegistration, id, nil)
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	s.publishTransition(ctx, reg, domain.OwnerLoan, domain.OwnerDone, actor.ID)
	return transport.ToRegistrationResponse(reg), nil
}

// SetLoanRequired toggles the loan leg. Turning it off after admission
// completed re-routes ownership the same way completion would have.
func (s *Service) SetLoanRequired(ctx context.Context, actor identitydomain.Actor, id uuid.UUID, required bool) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	var fromOwner, toOwner domain.Owner
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.Lifecycle.LoanCompleted {
			return apperr.Precondition("loan is already completed")
		}

		update := lifecycleUpdateFrom(reg, actor.ID, s.now().UTC())
		update.LoanRequired = required
		fromOwner = reg.Lifecycle.CurrentOwner
		if reg.Lifecycle.AdmissionCompleted {
			update.CurrentOwner = domain.OwnerAfterAdmission(required)
			if update.CurrentOwner == domain.OwnerDone {
				update.AdmissionStatus = domain.AdmissionSuccess
			} else {
				update.AdmissionStatus = domain.AdmissionInProgress
			}
		}
		toOwner = update.CurrentOwner

		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLoanRequiredToggled, audit.SubjectRegistration, id, map[string]any{
			"loan_required": required,
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	if fromOwner != toOwner {
		s.publishTransition(ctx, reg, fromOwner, toOwner, actor.ID)
	}
	return transport.ToRegistrationResponse(reg), nil
}

// DeferIntake records a move to a later intake term without releasing
// ownership.
func (s *Service) DeferIntake(ctx context.Context, actor identitydomain.Actor, id uuid.UUID, req transport.DeferIntakeRequest) (transport.RegistrationResponse, error) {
	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.AdmissionStatus == domain.AdmissionCancelled {
			return apperr.Precondition("admission is cancelled")
		}

		update := lifecycleUpdateFrom(reg, actor.ID, s.now().UTC())
		update.AdmissionStatus = domain.AdmissionDeferred
		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionIntakeDeferred, audit.SubjectRegistration, id, map[string]any{
			"to_term": sanitize.Text(req.ToTerm),
			"notes":   sanitize.Text(req.Notes),
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}
	return transport.ToRegistrationResponse(reg), nil
}

// Cancel terminates an in-progress admission. The reason is mandatory and
// kept on the registration.
func (s *Service) Cancel(ctx context.Context, actor identitydomain.Actor, id uuid.UUID, reason string) (transport.RegistrationResponse, error) {
	reason = sanitize.Text(reason)

	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		reg, err = s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if reg.AdmissionStatus == domain.AdmissionCancelled {
			return apperr.Conflict("admission is already cancelled")
		}

		update := lifecycleUpdateFrom(reg, actor.ID, s.now().UTC())
		update.AdmissionStatus = domain.AdmissionCancelled
		update.CancelReason = &reason
		if err := s.repo.UpdateLifecycleTx(ctx, tx, update); err != nil {
			return err
		}
		applyLifecycle(&reg, update)

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionAdmissionCancelled, audit.SubjectRegistration, id, map[string]any{
			"reason": reason,
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	s.bus.Publish(ctx, events.RegistrationCancelled{
		BaseEvent:      events.NewBaseEvent(),
		RegistrationID: reg.ID,
		PublicID:       reg.PublicID,
		Reason:         reason,
		ActorID:        actor.ID,
	})
	return transport.ToRegistrationResponse(reg), nil
}

func (s *Service) publishTransition(ctx context.Context, reg domain.Registration, from, to domain.Owner, actorID uuid.UUID) {
	s.log.Info("registration transitioned", "registration_id", reg.ID, "public_id", reg.PublicID, "from", string(from), "to", string(to))
	s.bus.Publish(ctx, events.WorkflowTransitioned{
		BaseEvent:      events.NewBaseEvent(),
		RegistrationID: reg.ID,
		PublicID:       reg.PublicID,
		FromOwner:      string(from),
		ToOwner:        string(to),
		ActorID:        actorID,
	})
}

// applyLifecycle mirrors a committed lifecycle update onto the in-memory
// registration so callers can respond without a re-read.
func applyLifecycle(reg *domain.Registration, update repository.LifecycleUpdate) {
	reg.Lifecycle.CurrentOwner = update.CurrentOwner
	reg.Lifecycle.LoanRequired = update.LoanRequired
	reg.Lifecycle.AdmissionCompleted = update.AdmissionCompleted
	reg.Lifecycle.LoanCompleted = update.LoanCompleted
	reg.Lifecycle.CounsellorCompletedAt = update.CounsellorCompletedAt
	reg.Lifecycle.LastTransitionBy = &update.TransitionBy
	reg.Lifecycle.LastTransitionAt = &update.TransitionAt
	reg.AdmissionStatus = update.AdmissionStatus
	reg.CancelReason = update.CancelReason
	reg.UpdatedAt = update.TransitionAt
}
