package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/platform/apperr"
)

// openLeadStatuses excludes terminal leads from the per-employee load count.
const openLeadsSubquery = `(
	SELECT count(*) FROM crm_leads l
	WHERE l.assigned_to = e.id
	  AND l.deleted_at IS NULL
	  AND l.status NOT IN ('converted', 'rejected')
)`

// LeadLock is the locked state of the lead being assigned.
type LeadLock struct {
	ID         uuid.UUID
	Name       string
	AssignedTo *uuid.UUID
	Status     string
	Deleted    bool
}

// EmployeeContact is the minimal employee identity used in the
// assignment-notification event.
type EmployeeContact struct {
	Name  string
	Email string
}

// Repository is the persistence contract for the assignment engine.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	LockLead(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) (LeadLock, error)
	LockCandidates(ctx context.Context, tx pgx.Tx) ([]Candidate, error)
	ClaimEmployee(ctx context.Context, tx pgx.Tx, employeeID uuid.UUID, at time.Time) (bool, error)
	AssignLead(ctx context.Context, tx pgx.Tx, leadID, employeeID uuid.UUID, at time.Time) (bool, error)
	GetEmployeeContact(ctx context.Context, tx pgx.Tx, employeeID uuid.UUID) (EmployeeContact, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new assignment repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// WithTx runs fn inside a transaction, committing on nil and rolling back
// on error.
func (r *Repo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LockLead locks the lead row for the duration of the claim.
func (r *Repo) LockLead(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) (LeadLock, error) {
	var lock LeadLock
	var deletedAt *time.Time
	err := tx.QueryRow(ctx,
		`SELECT id, name, assigned_to, status, deleted_at FROM crm_leads WHERE id = $1 FOR UPDATE`,
		leadID,
	).Scan(&lock.ID, &lock.Name, &lock.AssignedTo, &lock.Status, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadLock{}, apperr.NotFound("lead not found")
		}
		return LeadLock{}, fmt.Errorf("lock lead: %w", err)
	}
	lock.Deleted = deletedAt != nil
	return lock, nil
}

// LockCandidates locks the eligible employees ordered least-recently-assigned
// first. SKIP LOCKED lets concurrent claims proceed against disjoint
// candidates instead of serializing on the directory.
func (r *Repo) LockCandidates(ctx context.Context, tx pgx.Tx) ([]Candidate, error) {
	rows, err := tx.Query(ctx, `
		SELECT e.id, e.last_lead_assigned_at, `+openLeadsSubquery+` AS open_leads
		FROM crm_employees e
		WHERE e.status = 'active'
		  AND e.role IN ('counsellor', 'wfh', 'admission')
		ORDER BY e.last_lead_assigned_at ASC NULLS FIRST, e.id ASC
		FOR UPDATE OF e SKIP LOCKED`)
	if err != nil {
		return nil, fmt.Errorf("lock assignment candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var candidate Candidate
		if err := rows.Scan(&candidate.EmployeeID, &candidate.LastLeadAssignedAt, &candidate.OpenLeads); err != nil {
			return nil, fmt.Errorf("scan assignment candidate: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment candidates: %w", err)
	}
	return candidates, nil
}

// ClaimEmployee advances the employee's assignment clock. The load-count
// guard is re-checked inside the UPDATE so a stale candidate read can never
// push an employee over the cap.
func (r *Repo) ClaimEmployee(ctx context.Context, tx pgx.Tx, employeeID uuid.UUID, at time.Time) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE crm_employees e SET last_lead_assigned_at = $2, updated_at = now()
		WHERE e.id = $1
		  AND e.status = 'active'
		  AND `+openLeadsSubquery+` < $3`,
		employeeID, at, MaxOpenLeads)
	if err != nil {
		return false, fmt.Errorf("claim employee: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// AssignLead writes the assignment onto the lead. The WHERE clause keeps the
// operation idempotent under concurrent claims: only one transaction can move
// the lead out of the pool.
func (r *Repo) AssignLead(ctx context.Context, tx pgx.Tx, leadID, employeeID uuid.UUID, at time.Time) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE crm_leads SET assigned_to = $2, assigned_at = $3, status = 'assigned', updated_at = now()
		WHERE id = $1 AND assigned_to IS NULL AND deleted_at IS NULL`,
		leadID, employeeID, at)
	if err != nil {
		return false, fmt.Errorf("assign lead: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetEmployeeContact reads the assignee's name and email for notification.
func (r *Repo) GetEmployeeContact(ctx context.Context, tx pgx.Tx, employeeID uuid.UUID) (EmployeeContact, error) {
	var contact EmployeeContact
	err := tx.QueryRow(ctx,
		`SELECT name, email FROM crm_employees WHERE id = $1`, employeeID,
	).Scan(&contact.Name, &contact.Email)
	if err != nil {
		return EmployeeContact{}, fmt.Errorf("get employee contact: %w", err)
	}
	return contact, nil
}
