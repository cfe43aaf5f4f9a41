// Package email renders and delivers transactional mail for the CRM
// workflow. Templates are embedded; delivery goes over SMTP via go-mail.
package email

import "context"

// Sender delivers the workflow's transactional emails. The notification
// module is the only caller; it never sees templates or SMTP details.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail, employeeName, leadName string) error
	SendRegistrationCreatedEmail(ctx context.Context, toEmail, studentName, publicID string) error
	SendWorkflowTransitionedEmail(ctx context.Context, toEmail, studentName, publicID, stage string) error
	SendLoanDisbursedEmail(ctx context.Context, toEmail, studentName, publicID, bankName string, amount int64) error
	SendRegistrationCancelledEmail(ctx context.Context, toEmail, studentName, publicID, reason string) error
}

// NoopSender satisfies Sender without delivering anything. Used when SMTP
// is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendRegistrationCreatedEmail(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendWorkflowTransitionedEmail(context.Context, string, string, string, string) error {
	return nil
}

func (NoopSender) SendLoanDisbursedEmail(context.Context, string, string, string, string, int64) error {
	return nil
}

func (NoopSender) SendRegistrationCancelledEmail(context.Context, string, string, string, string) error {
	return nil
}

var _ Sender = NoopSender{}
