package email

const (
	subjectLeadAssigned         = "New lead assigned to you"
	subjectRegistrationCreated  = "Welcome aboard! Your registration is confirmed"
	subjectWorkflowTransitioned = "Your application has moved to the next stage"
	subjectLoanDisbursedFmt     = "Loan disbursed by %s"
	subjectRegistrationCancel   = "Your admission process has been cancelled"
)
