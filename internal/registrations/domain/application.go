package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"educrm_backend/platform/apperr"
)

// ApplicationStatus is the state of one university application.
type ApplicationStatus string

const (
	ApplicationDraft     ApplicationStatus = "draft"
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Application is one (university, course) pair under consideration for a
// registration.
type Application struct {
	ID              uuid.UUID
	RegistrationID  uuid.UUID
	University      string
	Course          string
	IntakeTerm      string
	Country         string
	Status          ApplicationStatus
	RejectionReason *string
	OfferLetterPath *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateApplicationStatus checks a requested status change. Rejected and
// withdrawn always need a reason; the server enforces it regardless of what
// the client claims.
func ValidateApplicationStatus(status ApplicationStatus, reason string) error {
	switch status {
	case ApplicationDraft, ApplicationSubmitted, ApplicationApproved:
		return nil
	case ApplicationRejected, ApplicationWithdrawn:
		if strings.TrimSpace(reason) == "" {
			return apperr.Precondition("rejection reason is required")
		}
		return nil
	default:
		return apperr.Validation("unknown application status")
	}
}
