package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/audit"
	"educrm_backend/internal/events"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/logger"
)

// Service runs the lead claim. It is invoked out-of-band by the task worker,
// never inline from the intake request.
type Service struct {
	repo  Repository
	audit audit.Recorder
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// NewService creates a new assignment service.
func NewService(repo Repository, auditor audit.Recorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, audit: auditor, bus: bus, log: log, now: time.Now}
}

// Assign claims the lead for the least-recently-assigned eligible employee.
// Re-delivery of the task is safe: an already-assigned lead is a no-op. When
// no employee has capacity the lead stays pooled and the next intake run will
// try again. Internal failures are audited and swallowed so the task queue
// does not retry forever against a poison lead.
func (s *Service) Assign(ctx context.Context, leadID uuid.UUID) error {
	var assigned *claimResult

	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		lock, err := s.repo.LockLead(ctx, tx, leadID)
		if err != nil {
			return err
		}
		if lock.AssignedTo != nil || lock.Deleted || isTerminalStatus(lock.Status) {
			return nil
		}

		candidates, err := s.repo.LockCandidates(ctx, tx)
		if err != nil {
			return err
		}
		candidate, ok := Pick(candidates)
		if !ok {
			s.log.Info("no assignment candidate with capacity, lead stays pooled", "lead_id", leadID.String())
			return nil
		}

		now := s.now().UTC()
		claimed, err := s.repo.ClaimEmployee(ctx, tx, candidate.EmployeeID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		moved, err := s.repo.AssignLead(ctx, tx, leadID, candidate.EmployeeID, now)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		contact, err := s.repo.GetEmployeeContact(ctx, tx, candidate.EmployeeID)
		if err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, candidate.EmployeeID, audit.ActionLeadAssigned, audit.SubjectLead, leadID, map[string]any{
			"employeeId": candidate.EmployeeID.String(),
		})

		assigned = &claimResult{
			leadName: lock.Name,
			employee: candidate.EmployeeID,
			contact:  contact,
		}
		return nil
	})
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			s.log.Warn("auto-assign skipped, lead not found", "lead_id", leadID.String())
			return nil
		}
		s.log.Error("auto-assign failed", "lead_id", leadID.String(), "error", err.Error())
		s.audit.Record(ctx, uuid.Nil, audit.ActionLeadAutoAssignFailed, audit.SubjectLead, leadID, map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if assigned != nil {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        leadID,
			LeadName:      assigned.leadName,
			EmployeeID:    assigned.employee,
			EmployeeEmail: assigned.contact.Email,
			EmployeeName:  assigned.contact.Name,
		})
	}
	return nil
}

type claimResult struct {
	leadName string
	employee uuid.UUID
	contact  EmployeeContact
}

func isTerminalStatus(status string) bool {
	return status == "converted" || status == "rejected"
}
