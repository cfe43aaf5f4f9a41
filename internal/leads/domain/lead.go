// Package domain holds the lead model: the micro-state machine, the call
// log, and the follow-up schedule. All state changes are planned here as
// pure values and executed by the repository in one transaction.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lead micro-state.
type Status string

const (
	StatusEnquiryReceived Status = "enquiry_received"
	StatusAssigned        Status = "assigned"
	StatusContacted       Status = "contacted"
	StatusFollowUp        Status = "follow_up"
	StatusConvertingToReg Status = "converting_to_reg"
	StatusRejected        Status = "rejected"
	StatusConverted       Status = "converted"
)

// Rejection records why and by whom a lead was closed.
type Rejection struct {
	Reason string
	By     uuid.UUID
	At     time.Time
}

// Lead is one prospective student enquiry.
type Lead struct {
	ID                      uuid.UUID
	Name                    string
	Email                   string
	Phone                   string
	Source                  string
	ServiceType             string
	City                    string
	Country                 string
	Status                  Status
	AssignedTo              *uuid.UUID
	AssignedAt              *time.Time
	Rejection               *Rejection
	ConvertedRegistrationID *uuid.UUID
	DeletedAt               *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CallLog is one recorded interaction attempt, ordered by At.
type CallLog struct {
	ID      uuid.UUID
	LeadID  uuid.UUID
	Outcome string
	Details string
	By      uuid.UUID
	At      time.Time
}

// FollowUpStatus is the state of a scheduled follow-up.
type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

// FollowUp is a scheduled future contact. At most one pending follow-up
// exists per lead; scheduling a new one completes the previous.
type FollowUp struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	DueAt       time.Time
	Note        string
	ScheduledBy uuid.UUID
	Status      FollowUpStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
}
