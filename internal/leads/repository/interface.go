package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/leads/domain"
)

// CreateParams carries the intake fields for a new lead.
type CreateParams struct {
	Name        string
	Email       string
	Phone       string
	Source      string
	ServiceType string
	City        string
	Country     string
}

// ListParams filters and paginates the lead listing.
type ListParams struct {
	Status         *domain.Status
	AssignedTo     *uuid.UUID
	Search         string
	IncludeDeleted bool
	Offset         int
	Limit          int
}

// InteractionParams is the full write set for one submitted interaction.
type InteractionParams struct {
	LeadID  uuid.UUID
	Outcome string
	Details string
	By      uuid.UUID
	At      time.Time
	Effect  domain.InteractionEffect
	Payload domain.InteractionPayload
}

// StatusCount is one row of the per-status dashboard breakdown.
type StatusCount struct {
	Status domain.Status
	Count  int
}

// AssigneeCount is one row of the per-assignee dashboard breakdown.
type AssigneeCount struct {
	EmployeeID   uuid.UUID
	EmployeeName string
	Count        int
}

// Stats is the dashboard aggregate.
type Stats struct {
	Total      int
	ByStatus   []StatusCount
	ByAssignee []AssigneeCount
}

// Repository is the persistence contract for leads, call logs, and follow-ups.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
	ListCallLogs(ctx context.Context, leadID uuid.UUID) ([]domain.CallLog, error)
	ListFollowUps(ctx context.Context, leadID uuid.UUID) ([]domain.FollowUp, error)

	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	LockLead(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Lead, error)
	CallLogExists(ctx context.Context, tx pgx.Tx, leadID, by uuid.UUID, at time.Time, outcome string) (bool, error)
	ApplyInteraction(ctx context.Context, tx pgx.Tx, params InteractionParams) error

	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (Stats, error)
}
