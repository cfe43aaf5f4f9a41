package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"educrm_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// NewSender builds the configured Sender: SMTP when email is enabled,
// otherwise a no-op.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// SMTPSender implements the Sender interface over a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, employeeName, leadName string) error {
	content, err := renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   "New lead assigned",
			Heading: "New lead assigned",
		},
		EmployeeName: employeeName,
		LeadName:     leadName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectLeadAssigned, content)
}

func (s *SMTPSender) SendRegistrationCreatedEmail(ctx context.Context, toEmail, studentName, publicID string) error {
	content, err := renderEmailTemplate("registration_created.html", registrationCreatedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Registration confirmed",
			Heading: "Registration confirmed",
		},
		StudentName: studentName,
		PublicID:    publicID,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectRegistrationCreated, content)
}

func (s *SMTPSender) SendWorkflowTransitionedEmail(ctx context.Context, toEmail, studentName, publicID, stage string) error {
	content, err := renderEmailTemplate("workflow_transitioned.html", workflowTransitionedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Application update",
			Heading: "Your application moved forward",
		},
		StudentName: studentName,
		PublicID:    publicID,
		Stage:       stage,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectWorkflowTransitioned, content)
}

func (s *SMTPSender) SendLoanDisbursedEmail(ctx context.Context, toEmail, studentName, publicID, bankName string, amount int64) error {
	subject := fmt.Sprintf(subjectLoanDisbursedFmt, bankName)
	content, err := renderEmailTemplate("loan_disbursed.html", loanDisbursedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Loan disbursed",
			Heading: "Loan disbursed",
		},
		StudentName:     studentName,
		PublicID:        publicID,
		BankName:        bankName,
		AmountFormatted: formatCurrencyINR(amount),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendRegistrationCancelledEmail(ctx context.Context, toEmail, studentName, publicID, reason string) error {
	content, err := renderEmailTemplate("registration_cancelled.html", registrationCancelledEmailData{
		baseEmailData: baseEmailData{
			Title:   "Admission cancelled",
			Heading: "Admission cancelled",
		},
		StudentName: studentName,
		PublicID:    publicID,
		Reason:      reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectRegistrationCancel, content)
}
