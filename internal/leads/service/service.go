// Package service implements the lead lifecycle: public intake, the
// interaction ledger, trash handling, and the dashboard aggregates.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/audit"
	"educrm_backend/internal/events"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/leads/domain"
	"educrm_backend/internal/leads/repository"
	"educrm_backend/internal/leads/transport"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/phone"
	"educrm_backend/platform/sanitize"
)

// AssignEnqueuer hands the freshly created lead to the background
// assignment worker. Enqueue failures never fail intake.
type AssignEnqueuer interface {
	EnqueueLeadAutoAssign(ctx context.Context, leadID uuid.UUID) error
}

// Service provides lead business logic.
type Service struct {
	repo     repository.Repository
	audit    audit.Recorder
	bus      events.Bus
	enqueuer AssignEnqueuer
	log      *logger.Logger
	stats    *statsCache
	now      func() time.Time
}

// New creates a new leads service.
func New(repo repository.Repository, auditor audit.Recorder, bus events.Bus, enqueuer AssignEnqueuer, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    auditor,
		bus:      bus,
		enqueuer: enqueuer,
		log:      log,
		stats:    newStatsCache(statsTTL),
		now:      time.Now,
	}
}

// Intake creates a lead from the public enquiry form, then fires the
// auto-assignment task and the created event. Neither side effect can fail
// the intake: the caller is an anonymous website visitor.
func (s *Service) Intake(ctx context.Context, req transport.IntakeLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.Create(ctx, repository.CreateParams{
		Name:        sanitize.Text(req.Name),
		Email:       sanitize.Text(req.Email),
		Phone:       phone.NormalizeE164(req.Phone),
		Source:      sanitize.Text(req.Source),
		ServiceType: sanitize.Text(req.ServiceType),
		City:        sanitize.Text(req.City),
		Country:     sanitize.Text(req.Country),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.audit.Record(ctx, uuid.Nil, audit.ActionLeadCreated, audit.SubjectLead, lead.ID, map[string]any{
		"source":      lead.Source,
		"serviceType": lead.ServiceType,
	})

	if err := s.enqueuer.EnqueueLeadAutoAssign(ctx, lead.ID); err != nil {
		s.log.Error("enqueue auto-assign failed", "lead_id", lead.ID.String(), "error", err.Error())
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		Source:    lead.Source,
	})

	return transport.ToLeadResponse(lead), nil
}

// SubmitInteraction appends one call log entry and applies the requested
// next step in a single transaction. Replaying the same (actor, at, outcome)
// triple is a no-op returning the current lead.
func (s *Service) SubmitInteraction(ctx context.Context, actor identitydomain.Actor, leadID uuid.UUID, req transport.SubmitInteractionRequest) (transport.LeadResponse, error) {
	var result domain.Lead

	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		lead, err := s.repo.LockLead(ctx, tx, leadID)
		if err != nil {
			return err
		}

		duplicate, err := s.repo.CallLogExists(ctx, tx, leadID, actor.ID, req.At, req.Outcome)
		if err != nil {
			return err
		}
		if duplicate {
			result = lead
			return nil
		}

		payload := domain.InteractionPayload{
			FollowUpAt:   req.FollowUpAt,
			FollowUpNote: sanitize.Text(req.FollowUpNote),
			RejectReason: sanitize.Text(req.RejectReason),
		}
		effect, err := domain.PlanInteraction(lead.Status, req.Outcome, domain.NextStep(req.NextStep), payload)
		if err != nil {
			return err
		}

		err = s.repo.ApplyInteraction(ctx, tx, repository.InteractionParams{
			LeadID:  leadID,
			Outcome: req.Outcome,
			Details: sanitize.Text(req.Details),
			By:      actor.ID,
			At:      req.At,
			Effect:  effect,
			Payload: payload,
		})
		if err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, actor.ID, audit.ActionLeadInteraction, audit.SubjectLead, leadID, map[string]any{
			"outcome":  req.Outcome,
			"nextStep": req.NextStep,
		})

		result = lead
		result.Status = effect.NewStatus
		if effect.ClearAssignment {
			result.AssignedTo = nil
			result.AssignedAt = nil
		}
		if effect.Reject {
			result.Rejection = &domain.Rejection{Reason: payload.RejectReason, By: actor.ID, At: req.At}
		}
		return nil
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(result), nil
}

// Get returns a lead with its full interaction history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}
	callLogs, err := s.repo.ListCallLogs(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}
	followUps, err := s.repo.ListFollowUps(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}

	detail := transport.LeadDetailResponse{
		Lead:      transport.ToLeadResponse(lead),
		CallLogs:  make([]transport.CallLogResponse, 0, len(callLogs)),
		FollowUps: make([]transport.FollowUpResponse, 0, len(followUps)),
	}
	for _, entry := range callLogs {
		detail.CallLogs = append(detail.CallLogs, transport.CallLogResponse{
			ID:      entry.ID,
			Outcome: entry.Outcome,
			Details: entry.Details,
			By:      entry.By,
			At:      entry.At.UTC().Format(time.RFC3339),
		})
	}
	for _, entry := range followUps {
		detail.FollowUps = append(detail.FollowUps, transport.FollowUpResponse{
			ID:          entry.ID,
			DueAt:       entry.DueAt.UTC().Format(time.RFC3339),
			Note:        entry.Note,
			ScheduledBy: entry.ScheduledBy,
			Status:      string(entry.Status),
			CompletedAt: entry.CompletedAt,
		})
	}
	return detail, nil
}

// List returns a filtered page of leads.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		Search:         req.Search,
		IncludeDeleted: req.IncludeDeleted,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}
	if req.Status != "" {
		status := domain.Status(req.Status)
		params.Status = &status
	}
	if req.AssignedTo != "" {
		assignee, err := uuid.Parse(req.AssignedTo)
		if err == nil {
			params.AssignedTo = &assignee
		}
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	responses := make([]transport.LeadResponse, 0, len(items))
	for _, lead := range items {
		responses = append(responses, transport.ToLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: responses, Total: total, Page: page}, nil
}

// SoftDelete moves a lead to the trash.
func (s *Service) SoftDelete(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, audit.ActionLeadSoftDeleted, audit.SubjectLead, id, nil)
	return nil
}

// Restore brings a trashed lead back, unless its conversion already
// produced a registration.
func (s *Service) Restore(ctx context.Context, actor identitydomain.Actor, id uuid.UUID) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.ID, audit.ActionLeadRestored, audit.SubjectLead, id, nil)
	return nil
}

// Stats returns the dashboard aggregate through a short in-process cache.
// The cache is read-only convenience for dashboards; lifecycle writes never
// consult it.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	if cached, ok := s.stats.get(s.now()); ok {
		return cached, nil
	}

	raw, err := s.repo.Stats(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	resp := transport.StatsResponse{
		Total:      raw.Total,
		ByStatus:   make([]transport.StatusCountResponse, 0, len(raw.ByStatus)),
		ByAssignee: make([]transport.AssigneeCountResponse, 0, len(raw.ByAssignee)),
		CachedAt:   s.now().UTC().Format(time.RFC3339),
	}
	for _, row := range raw.ByStatus {
		resp.ByStatus = append(resp.ByStatus, transport.StatusCountResponse{Status: string(row.Status), Count: row.Count})
	}
	for _, row := range raw.ByAssignee {
		resp.ByAssignee = append(resp.ByAssignee, transport.AssigneeCountResponse{
			EmployeeID:   row.EmployeeID,
			EmployeeName: row.EmployeeName,
			Count:        row.Count,
		})
	}

	s.stats.set(resp, s.now())
	return resp, nil
}
