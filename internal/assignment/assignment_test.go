package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/events"
	"educrm_backend/platform/logger"
)

func TestPickSkipsLoadedCandidates(t *testing.T) {
	free := Candidate{EmployeeID: uuid.New(), OpenLeads: 3}
	full := Candidate{EmployeeID: uuid.New(), OpenLeads: MaxOpenLeads}

	got, ok := Pick([]Candidate{full, free})
	if !ok || got.EmployeeID != free.EmployeeID {
		t.Fatalf("Pick = %+v, %v", got, ok)
	}
}

func TestPickPreservesLeastRecentOrdering(t *testing.T) {
	first := Candidate{EmployeeID: uuid.New(), OpenLeads: 1}
	second := Candidate{EmployeeID: uuid.New(), OpenLeads: 0}

	// Candidates arrive pre-ordered; Pick must not re-sort by load.
	got, ok := Pick([]Candidate{first, second})
	if !ok || got.EmployeeID != first.EmployeeID {
		t.Fatalf("Pick = %+v, %v", got, ok)
	}
}

func TestPickNoCapacity(t *testing.T) {
	if _, ok := Pick([]Candidate{{OpenLeads: MaxOpenLeads}}); ok {
		t.Fatal("expected no pick when every candidate is at the cap")
	}
	if _, ok := Pick(nil); ok {
		t.Fatal("expected no pick from empty candidate set")
	}
}

type fakeAssignmentRepo struct {
	lock       LeadLock
	candidates []Candidate

	claimed    *uuid.UUID
	assignedTo *uuid.UUID
}

func (f *fakeAssignmentRepo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (f *fakeAssignmentRepo) LockLead(context.Context, pgx.Tx, uuid.UUID) (LeadLock, error) {
	return f.lock, nil
}

func (f *fakeAssignmentRepo) LockCandidates(context.Context, pgx.Tx) ([]Candidate, error) {
	return f.candidates, nil
}

func (f *fakeAssignmentRepo) ClaimEmployee(_ context.Context, _ pgx.Tx, employeeID uuid.UUID, _ time.Time) (bool, error) {
	f.claimed = &employeeID
	return true, nil
}

func (f *fakeAssignmentRepo) AssignLead(_ context.Context, _ pgx.Tx, _ uuid.UUID, employeeID uuid.UUID, _ time.Time) (bool, error) {
	f.assignedTo = &employeeID
	return true, nil
}

func (f *fakeAssignmentRepo) GetEmployeeContact(context.Context, pgx.Tx, uuid.UUID) (EmployeeContact, error) {
	return EmployeeContact{Name: "Priya Nair", Email: "priya@example.com"}, nil
}

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

func TestAssignClaimsLeastRecentCandidate(t *testing.T) {
	leadID := uuid.New()
	employeeID := uuid.New()
	repo := &fakeAssignmentRepo{
		lock:       LeadLock{ID: leadID, Name: "Asha Verma", Status: "enquiry_received"},
		candidates: []Candidate{{EmployeeID: employeeID, OpenLeads: 2}},
	}
	bus := &captureBus{}

	svc := NewService(repo, noopRecorder{}, bus, logger.New("test"))
	if err := svc.Assign(context.Background(), leadID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.claimed == nil || *repo.claimed != employeeID {
		t.Fatal("expected employee to be claimed")
	}
	if repo.assignedTo == nil || *repo.assignedTo != employeeID {
		t.Fatal("expected lead to be assigned")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	assigned, ok := bus.published[0].(events.LeadAssigned)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if assigned.LeadID != leadID || assigned.EmployeeID != employeeID || assigned.EmployeeEmail != "priya@example.com" {
		t.Fatalf("event = %+v", assigned)
	}
}

func TestAssignAlreadyAssignedLeadIsNoOp(t *testing.T) {
	owner := uuid.New()
	repo := &fakeAssignmentRepo{
		lock:       LeadLock{ID: uuid.New(), AssignedTo: &owner, Status: "assigned"},
		candidates: []Candidate{{EmployeeID: uuid.New()}},
	}
	bus := &captureBus{}

	svc := NewService(repo, noopRecorder{}, bus, logger.New("test"))
	if err := svc.Assign(context.Background(), repo.lock.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.claimed != nil || len(bus.published) != 0 {
		t.Fatal("re-delivery must not claim or publish")
	}
}

func TestAssignLeavesLeadPooledWithoutCapacity(t *testing.T) {
	repo := &fakeAssignmentRepo{
		lock:       LeadLock{ID: uuid.New(), Status: "enquiry_received"},
		candidates: []Candidate{{EmployeeID: uuid.New(), OpenLeads: MaxOpenLeads}},
	}
	bus := &captureBus{}

	svc := NewService(repo, noopRecorder{}, bus, logger.New("test"))
	if err := svc.Assign(context.Background(), repo.lock.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.claimed != nil || repo.assignedTo != nil || len(bus.published) != 0 {
		t.Fatal("lead should stay pooled when nobody has capacity")
	}
}

func TestAssignSkipsTerminalLead(t *testing.T) {
	repo := &fakeAssignmentRepo{
		lock:       LeadLock{ID: uuid.New(), Status: "rejected"},
		candidates: []Candidate{{EmployeeID: uuid.New()}},
	}
	bus := &captureBus{}

	svc := NewService(repo, noopRecorder{}, bus, logger.New("test"))
	if err := svc.Assign(context.Background(), repo.lock.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.claimed != nil || len(bus.published) != 0 {
		t.Fatal("terminal lead must not be assigned")
	}
}
