package audit

// Subject kinds recorded on audit events.
const (
	SubjectLead         = "lead"
	SubjectRegistration = "registration"
	SubjectApplication  = "application"
	SubjectLoan         = "loan"
	SubjectDocument     = "document"
	SubjectEmployee     = "employee"
)

// Actions recorded on audit events. Every state-changing operation in the
// workflow writes exactly one of these.
const (
	ActionLeadCreated          = "LEAD_CREATED"
	ActionLeadAssigned         = "LEAD_ASSIGNED"
	ActionLeadAutoAssignFailed = "LEAD_AUTO_ASSIGN_FAILED"
	ActionLeadInteraction      = "LEAD_INTERACTION"
	ActionLeadConverted        = "LEAD_CONVERTED"
	ActionLeadSoftDeleted      = "LEAD_SOFT_DELETED"
	ActionLeadRestored         = "LEAD_RESTORED"

	ActionWorkflowTransition = "WORKFLOW_TRANSITION"

	ActionApplicationCreated       = "APPLICATION_CREATED"
	ActionApplicationUpdated       = "APPLICATION_UPDATED"
	ActionApplicationStatusChanged = "APPLICATION_STATUS_CHANGED"
	ActionOfferLetterUploaded      = "OFFER_LETTER_UPLOADED"

	ActionLoanRequiredToggled = "LOAN_REQUIRED_TOGGLED"
	ActionIntakeDeferred      = "INTAKE_DEFERRED"
	ActionAdmissionCompleted  = "ADMISSION_COMPLETED"
	ActionAdmissionCancelled  = "ADMISSION_CANCELLED"

	ActionLoanUpdated         = "LOAN_UPDATED"
	ActionLoanStatusChanged   = "LOAN_STATUS_CHANGED"
	ActionLoanPaymentRecorded = "LOAN_PAYMENT_RECORDED"
	ActionLoanCompleted       = "LOAN_COMPLETED"

	ActionDocumentUploaded = "DOCUMENT_UPLOADED"
	ActionDocumentVerified = "DOCUMENT_VERIFIED"

	ActionEmployeeCreated       = "EMPLOYEE_CREATED"
	ActionEmployeeUpdated       = "EMPLOYEE_UPDATED"
	ActionEmployeeStatusChanged = "EMPLOYEE_STATUS_CHANGED"

	ActionRegistrationSoftDeleted = "REGISTRATION_SOFT_DELETED"
	ActionRegistrationRestored    = "REGISTRATION_RESTORED"
	ActionInstallmentRecorded     = "INSTALLMENT_RECORDED"
	ActionTestRecordDeleted       = "TEST_RECORD_DELETED"
)
