package service

import (
	"context"
	"strings"

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

// ConvertLead turns a lead in converting_to_reg into a registration. The
// public id, the registration row, and the lead's terminal status are all
// written in one transaction; a lead that moved out of converting_to_reg
// between read and write loses with PreconditionViolated.
func (s *Service) ConvertLead(ctx context.Context, actor identitydomain.Actor, req transport.ConvertLeadRequest) (transport.RegistrationResponse, error) {
	if !actor.Capabilities.CanConvertLeads() {
		return transport.RegistrationResponse{}, apperr.Forbidden("only counsellors may convert leads")
	}

	email := strings.ToLower(strings.TrimSpace(req.StudentEmail))
	now := s.now().UTC()

	var reg domain.Registration
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		exists, err := s.repo.StudentEmailExists(ctx, tx, email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("a registration with this student email already exists")
		}

		count, err := s.repo.CountAll(ctx, tx)
		if err != nil {
			return err
		}

		reg, err = s.repo.CreateTx(ctx, tx, repository.CreateRegistrationParams{
			PublicID:         domain.NewPublicID(now.Year(), count),
			LeadID:           req.LeadID,
			StudentName:      sanitize.Text(req.StudentName),
			StudentEmail:     email,
			StudentPhone:     phone.NormalizeE164(req.StudentPhone),
			TotalAmount:      req.TotalAmount,
			OriginCounsellor: actor.ID,
			LoanRequired:     req.LoanRequired,
			IsTestData:       req.IsTestData,
		})
		if err != nil {
			return err
		}

		converted, err := s.repo.MarkLeadConvertedTx(ctx, tx, req.LeadID, reg.ID)
		if err != nil {
			return err
		}
		if !converted {
			return apperr.Precondition("lead is not ready for conversion")
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLeadConverted, audit.SubjectLead, req.LeadID, map[string]any{
			"registration_id": reg.ID.String(),
			"public_id":       reg.PublicID,
		})
		return nil
	})
	if err != nil {
		return transport.RegistrationResponse{}, err
	}

	s.log.Info("lead converted", "lead_id", req.LeadID, "registration_id", reg.ID, "public_id", reg.PublicID)
	s.bus.Publish(ctx, events.RegistrationCreated{
		BaseEvent:      events.NewBaseEvent(),
		RegistrationID: reg.ID,
		PublicID:       reg.PublicID,
		LeadID:         req.LeadID,
		StudentName:    reg.StudentName,
		StudentEmail:   reg.StudentEmail,
		CounsellorID:   actor.ID,
	})

	return transport.ToRegistrationResponse(reg), nil
}
