package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/events"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/leads/domain"
	"educrm_backend/internal/leads/repository"
	"educrm_backend/internal/leads/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/logger"
)

type fakeLeadRepo struct {
	lead      domain.Lead
	duplicate bool

	created     *repository.CreateParams
	interaction *repository.InteractionParams
}

func (f *fakeLeadRepo) Create(_ context.Context, params repository.CreateParams) (domain.Lead, error) {
	f.created = &params
	f.lead = domain.Lead{
		ID:          uuid.New(),
		Name:        params.Name,
		Email:       params.Email,
		Phone:       params.Phone,
		Source:      params.Source,
		ServiceType: params.ServiceType,
		Status:      domain.StatusEnquiryReceived,
	}
	return f.lead, nil
}

func (f *fakeLeadRepo) GetByID(context.Context, uuid.UUID) (domain.Lead, error) {
	return f.lead, nil
}

func (f *fakeLeadRepo) List(context.Context, repository.ListParams) ([]domain.Lead, int, error) {
	return []domain.Lead{f.lead}, 1, nil
}

func (f *fakeLeadRepo) ListCallLogs(context.Context, uuid.UUID) ([]domain.CallLog, error) {
	return nil, nil
}

func (f *fakeLeadRepo) ListFollowUps(context.Context, uuid.UUID) ([]domain.FollowUp, error) {
	return nil, nil
}

func (f *fakeLeadRepo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (f *fakeLeadRepo) LockLead(context.Context, pgx.Tx, uuid.UUID) (domain.Lead, error) {
	return f.lead, nil
}

func (f *fakeLeadRepo) CallLogExists(context.Context, pgx.Tx, uuid.UUID, uuid.UUID, time.Time, string) (bool, error) {
	return f.duplicate, nil
}

func (f *fakeLeadRepo) ApplyInteraction(_ context.Context, _ pgx.Tx, params repository.InteractionParams) error {
	f.interaction = &params
	return nil
}

func (f *fakeLeadRepo) SoftDelete(context.Context, uuid.UUID, time.Time) error { return nil }
func (f *fakeLeadRepo) Restore(context.Context, uuid.UUID) error               { return nil }

func (f *fakeLeadRepo) Stats(context.Context) (repository.Stats, error) {
	return repository.Stats{Total: 1}, nil
}

var _ repository.Repository = (*fakeLeadRepo)(nil)

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, uuid.UUID, string, string, uuid.UUID, map[string]any) {}
func (noopRecorder) RecordTx(context.Context, pgx.Tx, uuid.UUID, string, string, uuid.UUID, map[string]any) {
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

type captureEnqueuer struct {
	leadIDs []uuid.UUID
	err     error
}

func (e *captureEnqueuer) EnqueueLeadAutoAssign(_ context.Context, leadID uuid.UUID) error {
	e.leadIDs = append(e.leadIDs, leadID)
	return e.err
}

func newTestService(repo *fakeLeadRepo, bus *captureBus, enqueuer *captureEnqueuer) *Service {
	if bus == nil {
		bus = &captureBus{}
	}
	if enqueuer == nil {
		enqueuer = &captureEnqueuer{}
	}
	return New(repo, noopRecorder{}, bus, enqueuer, logger.New("test"))
}

func counsellorActor() identitydomain.Actor {
	return identitydomain.NewActor(uuid.New(), "counsellor")
}

func TestIntakeFiresAssignmentAndEvent(t *testing.T) {
	repo := &fakeLeadRepo{}
	bus := &captureBus{}
	enqueuer := &captureEnqueuer{}
	svc := newTestService(repo, bus, enqueuer)

	resp, err := svc.Intake(context.Background(), transport.IntakeLeadRequest{
		Name:        "Asha Verma",
		Email:       "asha@example.com",
		Phone:       "+91 98765 43210",
		Source:      "website",
		ServiceType: "masters_abroad",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusEnquiryReceived) {
		t.Fatalf("status = %q", resp.Status)
	}
	if len(enqueuer.leadIDs) != 1 || enqueuer.leadIDs[0] != repo.lead.ID {
		t.Fatal("expected auto-assign task for the new lead")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if _, ok := bus.published[0].(events.LeadCreated); !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
}

func TestIntakeSurvivesEnqueueFailure(t *testing.T) {
	repo := &fakeLeadRepo{}
	enqueuer := &captureEnqueuer{err: errors.New("redis down")}
	svc := newTestService(repo, nil, enqueuer)

	_, err := svc.Intake(context.Background(), transport.IntakeLeadRequest{
		Name: "Asha", Email: "a@b.com", Phone: "+919876543210", ServiceType: "masters_abroad",
	})
	if err != nil {
		t.Fatalf("intake must not fail on enqueue error: %v", err)
	}
}

func TestSubmitInteractionSchedulesFollowUp(t *testing.T) {
	repo := &fakeLeadRepo{lead: domain.Lead{ID: uuid.New(), Status: domain.StatusContacted}}
	svc := newTestService(repo, nil, nil)
	due := time.Now().Add(48 * time.Hour)

	resp, err := svc.SubmitInteraction(context.Background(), counsellorActor(), repo.lead.ID, transport.SubmitInteractionRequest{
		Outcome:    "connected",
		At:         time.Now(),
		NextStep:   "follow_up",
		FollowUpAt: &due,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusFollowUp) {
		t.Fatalf("status = %q", resp.Status)
	}
	if repo.interaction == nil || !repo.interaction.Effect.ScheduleFollowUp {
		t.Fatalf("interaction = %+v", repo.interaction)
	}
}

func TestSubmitInteractionRejectClearsAssignment(t *testing.T) {
	assignee := uuid.New()
	now := time.Now()
	repo := &fakeLeadRepo{lead: domain.Lead{
		ID: uuid.New(), Status: domain.StatusContacted, AssignedTo: &assignee, AssignedAt: &now,
	}}
	svc := newTestService(repo, nil, nil)

	resp, err := svc.SubmitInteraction(context.Background(), counsellorActor(), repo.lead.ID, transport.SubmitInteractionRequest{
		Outcome:      "connected",
		At:           time.Now(),
		NextStep:     "reject",
		RejectReason: "budget mismatch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusRejected) {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.AssignedTo != nil {
		t.Fatal("rejection should release the assignment")
	}
	if resp.Rejection == nil || resp.Rejection.Reason != "budget mismatch" {
		t.Fatalf("rejection = %+v", resp.Rejection)
	}
}

func TestSubmitInteractionMissingRejectReason(t *testing.T) {
	repo := &fakeLeadRepo{lead: domain.Lead{ID: uuid.New(), Status: domain.StatusContacted}}
	svc := newTestService(repo, nil, nil)

	_, err := svc.SubmitInteraction(context.Background(), counsellorActor(), repo.lead.ID, transport.SubmitInteractionRequest{
		Outcome:  "connected",
		At:       time.Now(),
		NextStep: "reject",
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if repo.interaction != nil {
		t.Fatal("nothing should be written on validation failure")
	}
}

func TestSubmitInteractionReplayIsNoOp(t *testing.T) {
	repo := &fakeLeadRepo{
		lead:      domain.Lead{ID: uuid.New(), Status: domain.StatusFollowUp},
		duplicate: true,
	}
	svc := newTestService(repo, nil, nil)

	resp, err := svc.SubmitInteraction(context.Background(), counsellorActor(), repo.lead.ID, transport.SubmitInteractionRequest{
		Outcome:  "connected",
		At:       time.Now(),
		NextStep: "register",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusFollowUp) {
		t.Fatalf("replay must not change status, got %q", resp.Status)
	}
	if repo.interaction != nil {
		t.Fatal("replay must not write")
	}
}

func TestSubmitInteractionRegisterMarksConverting(t *testing.T) {
	repo := &fakeLeadRepo{lead: domain.Lead{ID: uuid.New(), Status: domain.StatusFollowUp}}
	svc := newTestService(repo, nil, nil)

	resp, err := svc.SubmitInteraction(context.Background(), counsellorActor(), repo.lead.ID, transport.SubmitInteractionRequest{
		Outcome:  "connected",
		At:       time.Now(),
		NextStep: "register",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.StatusConvertingToReg) {
		t.Fatalf("status = %q", resp.Status)
	}
}
