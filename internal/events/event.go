package events

import (
	platformevents "educrm_backend/platform/events"
	"educrm_backend/platform/logger"

	"github.com/google/uuid"
)

// Aliases into platform/events so modules import one events package for
// both the bus plumbing and the event types below.
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	InMemoryBus = platformevents.InMemoryBus
)

var NewBaseEvent = platformevents.NewBaseEvent

// NewInMemoryBus builds the in-process bus both binaries wire at startup.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// LeadCreated fires when a lead arrives from the public intake form.
type LeadCreated struct {
	platformevents.BaseEvent
	LeadID   uuid.UUID
	LeadName string
	Source   string
}

func (LeadCreated) EventName() string { return "lead.created" }

// LeadAssigned fires when the assignment engine claims a lead for an employee.
type LeadAssigned struct {
	platformevents.BaseEvent
	LeadID        uuid.UUID
	LeadName      string
	EmployeeID    uuid.UUID
	EmployeeEmail string
	EmployeeName  string
}

func (LeadAssigned) EventName() string { return "lead.assigned" }

// RegistrationCreated fires when a lead is converted into a registration.
type RegistrationCreated struct {
	platformevents.BaseEvent
	RegistrationID uuid.UUID
	PublicID       string
	LeadID         uuid.UUID
	StudentName    string
	StudentEmail   string
	CounsellorID   uuid.UUID
}

func (RegistrationCreated) EventName() string { return "registration.created" }

// WorkflowTransitioned fires when a registration changes owning department.
type WorkflowTransitioned struct {
	platformevents.BaseEvent
	RegistrationID uuid.UUID
	PublicID       string
	FromOwner      string
	ToOwner        string
	ActorID        uuid.UUID
}

func (WorkflowTransitioned) EventName() string { return "registration.workflow_transitioned" }

// RegistrationCancelled fires when an admission is cancelled.
type RegistrationCancelled struct {
	platformevents.BaseEvent
	RegistrationID uuid.UUID
	PublicID       string
	Reason         string
	ActorID        uuid.UUID
}

func (RegistrationCancelled) EventName() string { return "registration.cancelled" }

// NotificationOutboxDue fires when the worker picks up an outbox row whose
// run_at has passed. The notification module handles it synchronously so a
// delivery failure surfaces as a task retry.
type NotificationOutboxDue struct {
	platformevents.BaseEvent
	OutboxID uuid.UUID
}

func (NotificationOutboxDue) EventName() string { return "notification.outbox_due" }

// LoanDisbursed fires when a loan application reaches the disbursed state.
type LoanDisbursed struct {
	platformevents.BaseEvent
	LoanID         uuid.UUID
	RegistrationID uuid.UUID
	PublicID       string
	BankName       string
	Amount         int64
}

func (LoanDisbursed) EventName() string { return "loan.disbursed" }
