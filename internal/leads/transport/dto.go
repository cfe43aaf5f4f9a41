package transport

import (
	"time"

	"github.com/google/uuid"

	"educrm_backend/internal/leads/domain"
)

// IntakeLeadRequest is the public website enquiry form.
type IntakeLeadRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,min=7,max=20"`
	Source      string `json:"source" validate:"omitempty,max=60"`
	ServiceType string `json:"serviceType" validate:"required,max=60"`
	City        string `json:"city" validate:"omitempty,max=80"`
	Country     string `json:"country" validate:"omitempty,max=80"`
}

// SubmitInteractionRequest records one call and its next step. At doubles as
// the idempotency key together with the actor and outcome.
type SubmitInteractionRequest struct {
	Outcome      string     `json:"outcome" validate:"required,max=40"`
	Details      string     `json:"details" validate:"omitempty,max=2000"`
	At           time.Time  `json:"at" validate:"required"`
	NextStep     string     `json:"nextStep" validate:"required,oneof=follow_up reject register none"`
	FollowUpAt   *time.Time `json:"followUpAt,omitempty"`
	FollowUpNote string     `json:"followUpNote,omitempty" validate:"omitempty,max=500"`
	RejectReason string     `json:"rejectReason,omitempty" validate:"omitempty,max=500"`
}

// ListLeadsRequest filters the lead listing.
type ListLeadsRequest struct {
	Status         string `form:"status"`
	AssignedTo     string `form:"assignedTo"`
	Search         string `form:"search"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
}

// RejectionResponse describes why a lead was closed.
type RejectionResponse struct {
	Reason string    `json:"reason"`
	By     uuid.UUID `json:"by"`
	At     string    `json:"at"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID                      uuid.UUID          `json:"id"`
	Name                    string             `json:"name"`
	Email                   string             `json:"email"`
	Phone                   string             `json:"phone"`
	Source                  string             `json:"source"`
	ServiceType             string             `json:"serviceType"`
	City                    string             `json:"city,omitempty"`
	Country                 string             `json:"country,omitempty"`
	Status                  string             `json:"status"`
	AssignedTo              *uuid.UUID         `json:"assignedTo,omitempty"`
	AssignedAt              *time.Time         `json:"assignedAt,omitempty"`
	Rejection               *RejectionResponse `json:"rejection,omitempty"`
	ConvertedRegistrationID *uuid.UUID         `json:"convertedRegistrationId,omitempty"`
	DeletedAt               *time.Time         `json:"deletedAt,omitempty"`
	CreatedAt               string             `json:"createdAt"`
	UpdatedAt               string             `json:"updatedAt"`
}

// CallLogResponse is one call log entry.
type CallLogResponse struct {
	ID      uuid.UUID `json:"id"`
	Outcome string    `json:"outcome"`
	Details string    `json:"details,omitempty"`
	By      uuid.UUID `json:"by"`
	At      string    `json:"at"`
}

// FollowUpResponse is one scheduled follow-up.
type FollowUpResponse struct {
	ID          uuid.UUID  `json:"id"`
	DueAt       string     `json:"dueAt"`
	Note        string     `json:"note,omitempty"`
	ScheduledBy uuid.UUID  `json:"scheduledBy"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// LeadDetailResponse is a lead with its interaction history.
type LeadDetailResponse struct {
	Lead      LeadResponse       `json:"lead"`
	CallLogs  []CallLogResponse  `json:"callLogs"`
	FollowUps []FollowUpResponse `json:"followUps"`
}

// LeadListResponse wraps a paginated lead listing.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
}

// StatusCountResponse is one per-status dashboard row.
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// AssigneeCountResponse is one per-assignee dashboard row.
type AssigneeCountResponse struct {
	EmployeeID   uuid.UUID `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Count        int       `json:"count"`
}

// StatsResponse is the lead dashboard aggregate.
type StatsResponse struct {
	Total      int                     `json:"total"`
	ByStatus   []StatusCountResponse   `json:"byStatus"`
	ByAssignee []AssigneeCountResponse `json:"byAssignee"`
	CachedAt   string                  `json:"cachedAt"`
}

// ToLeadResponse maps a domain lead onto the API shape.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:                      lead.ID,
		Name:                    lead.Name,
		Email:                   lead.Email,
		Phone:                   lead.Phone,
		Source:                  lead.Source,
		ServiceType:             lead.ServiceType,
		City:                    lead.City,
		Country:                 lead.Country,
		Status:                  string(lead.Status),
		AssignedTo:              lead.AssignedTo,
		AssignedAt:              lead.AssignedAt,
		ConvertedRegistrationID: lead.ConvertedRegistrationID,
		DeletedAt:               lead.DeletedAt,
		CreatedAt:               lead.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:               lead.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if lead.Rejection != nil {
		resp.Rejection = &RejectionResponse{
			Reason: lead.Rejection.Reason,
			By:     lead.Rejection.By,
			At:     lead.Rejection.At.UTC().Format(time.RFC3339),
		}
	}
	return resp
}
