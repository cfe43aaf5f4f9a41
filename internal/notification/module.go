// Package notification turns domain events into queued emails. Events are
// appended to the outbox; delivery happens out-of-band through the
// scheduler, so a slow or broken SMTP server never delays a business write.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/internal/email"
	"educrm_backend/internal/events"
	"educrm_backend/internal/notification/outbox"
	"educrm_backend/platform/logger"
)

// Template names stored on outbox rows. The dispatch switch below is the
// single consumer.
const (
	TemplateLeadAssigned          = "lead_assigned"
	TemplateRegistrationCreated   = "registration_created"
	TemplateWorkflowTransitioned  = "workflow_transitioned"
	TemplateLoanDisbursed         = "loan_disbursed"
	TemplateRegistrationCancelled = "registration_cancelled"
)

type leadAssignedPayload struct {
	EmployeeName string `json:"employeeName"`
	LeadName     string `json:"leadName"`
}

type registrationCreatedPayload struct {
	StudentName string `json:"studentName"`
	PublicID    string `json:"publicId"`
}

type workflowTransitionedPayload struct {
	StudentName string `json:"studentName"`
	PublicID    string `json:"publicId"`
	Stage       string `json:"stage"`
}

type loanDisbursedPayload struct {
	StudentName string `json:"studentName"`
	PublicID    string `json:"publicId"`
	BankName    string `json:"bankName"`
	Amount      int64  `json:"amount"`
}

type registrationCancelledPayload struct {
	StudentName string `json:"studentName"`
	PublicID    string `json:"publicId"`
	Reason      string `json:"reason"`
}

// Module subscribes to domain events and owns the outbox.
type Module struct {
	pool   *pgxpool.Pool
	outbox *outbox.Repository
	sender email.Sender
	log    *logger.Logger
}

// New creates the notification module.
func New(pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) *Module {
	return &Module{
		pool:   pool,
		outbox: outbox.New(pool),
		sender: sender,
		log:    log,
	}
}

// Outbox exposes the repository to the scheduler's dispatcher.
func (m *Module) Outbox() *outbox.Repository { return m.outbox }

// RegisterHandlers subscribes the module to the events it emails about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	handler := events.HandlerFunc(m.Handle)
	bus.Subscribe(events.LeadAssigned{}.EventName(), handler)
	bus.Subscribe(events.RegistrationCreated{}.EventName(), handler)
	bus.Subscribe(events.WorkflowTransitioned{}.EventName(), handler)
	bus.Subscribe(events.LoanDisbursed{}.EventName(), handler)
	bus.Subscribe(events.RegistrationCancelled{}.EventName(), handler)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), handler)
}

// Handle routes one event. Outbox insert failures are logged, never
// propagated: notification loss must not fail the operation that fired the
// event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		m.enqueue(ctx, TemplateLeadAssigned, e.EmployeeEmail, leadAssignedPayload{
			EmployeeName: e.EmployeeName,
			LeadName:     e.LeadName,
		})
	case events.RegistrationCreated:
		m.enqueue(ctx, TemplateRegistrationCreated, e.StudentEmail, registrationCreatedPayload{
			StudentName: e.StudentName,
			PublicID:    e.PublicID,
		})
	case events.WorkflowTransitioned:
		contact := m.resolveStudentContact(ctx, e.RegistrationID)
		if contact == nil {
			return nil
		}
		m.enqueue(ctx, TemplateWorkflowTransitioned, contact.Email, workflowTransitionedPayload{
			StudentName: contact.Name,
			PublicID:    e.PublicID,
			Stage:       e.ToOwner,
		})
	case events.LoanDisbursed:
		contact := m.resolveStudentContact(ctx, e.RegistrationID)
		if contact == nil {
			return nil
		}
		m.enqueue(ctx, TemplateLoanDisbursed, contact.Email, loanDisbursedPayload{
			StudentName: contact.Name,
			PublicID:    e.PublicID,
			BankName:    e.BankName,
			Amount:      e.Amount,
		})
	case events.RegistrationCancelled:
		contact := m.resolveStudentContact(ctx, e.RegistrationID)
		if contact == nil {
			return nil
		}
		m.enqueue(ctx, TemplateRegistrationCancelled, contact.Email, registrationCancelledPayload{
			StudentName: contact.Name,
			PublicID:    e.PublicID,
			Reason:      e.Reason,
		})
	case events.NotificationOutboxDue:
		return m.deliver(ctx, e.OutboxID)
	}
	return nil
}

func (m *Module) enqueue(ctx context.Context, template, recipient string, payload any) {
	if recipient == "" {
		return
	}
	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Template:  template,
		Recipient: recipient,
		Payload:   payload,
	})
	if err != nil {
		m.log.Error("outbox insert failed", "template", template, "error", err)
		return
	}
	m.log.Info("notification queued", "outbox_id", id, "template", template)
}

// deliver sends one claimed outbox record. An error returned here makes the
// worker retry the task; the record is parked back to pending first.
func (m *Module) deliver(ctx context.Context, outboxID uuid.UUID) error {
	rec, err := m.outbox.GetByID(ctx, outboxID)
	if err != nil {
		return fmt.Errorf("load outbox record: %w", err)
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	if err := m.send(ctx, rec); err != nil {
		m.log.Error("notification delivery failed", "outbox_id", rec.ID, "template", rec.Template, "error", err)
		if rec.Attempts+1 >= maxDeliveryAttempts {
			_ = m.outbox.MarkFailed(ctx, rec.ID, err.Error())
			return nil
		}
		msg := err.Error()
		_ = m.outbox.MarkPending(ctx, rec.ID, &msg)
		return err
	}

	return m.outbox.MarkSucceeded(ctx, rec.ID)
}

const maxDeliveryAttempts = 5

func (m *Module) send(ctx context.Context, rec outbox.Record) error {
	switch rec.Template {
	case TemplateLeadAssigned:
		var p leadAssignedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return m.sender.SendLeadAssignedEmail(ctx, rec.Recipient, p.EmployeeName, p.LeadName)
	case TemplateRegistrationCreated:
		var p registrationCreatedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return m.sender.SendRegistrationCreatedEmail(ctx, rec.Recipient, p.StudentName, p.PublicID)
	case TemplateWorkflowTransitioned:
		var p workflowTransitionedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return m.sender.SendWorkflowTransitionedEmail(ctx, rec.Recipient, p.StudentName, p.PublicID, p.Stage)
	case TemplateLoanDisbursed:
		var p loanDisbursedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return m.sender.SendLoanDisbursedEmail(ctx, rec.Recipient, p.StudentName, p.PublicID, p.BankName, p.Amount)
	case TemplateRegistrationCancelled:
		var p registrationCancelledPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		return m.sender.SendRegistrationCancelledEmail(ctx, rec.Recipient, p.StudentName, p.PublicID, p.Reason)
	default:
		return fmt.Errorf("unknown outbox template %q", rec.Template)
	}
}

type studentContact struct {
	Name  string
	Email string
}

func (m *Module) resolveStudentContact(ctx context.Context, registrationID uuid.UUID) *studentContact {
	var contact studentContact
	err := m.pool.QueryRow(ctx,
		`SELECT student_name, student_email FROM crm_registrations WHERE id = $1 AND deleted_at IS NULL`,
		registrationID,
	).Scan(&contact.Name, &contact.Email)
	if err != nil {
		m.log.Warn("student contact lookup failed", "registration_id", registrationID, "error", err)
		return nil
	}
	return &contact
}
