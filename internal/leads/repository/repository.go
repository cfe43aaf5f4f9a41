package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/internal/leads/domain"
	"educrm_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

const leadColumns = `id, name, email, phone, source, service_type, city, country, status,
	assigned_to, assigned_at, rejection_reason, rejected_by, rejected_at,
	converted_registration_id, deleted_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a new lead in the enquiry-received state.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.Lead, error) {
	query := `
		INSERT INTO crm_leads (name, email, phone, source, service_type, city, country, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'enquiry_received')
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Source,
		params.ServiceType, params.City, params.Country,
	))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetByID retrieves a lead by ID, soft-deleted leads included so the trash
// view and restore can see them.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM crm_leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// List retrieves leads with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	arg := 1

	if !params.IncludeDeleted {
		where += ` AND deleted_at IS NULL`
	}
	if params.Status != nil {
		where += fmt.Sprintf(` AND status = $%d`, arg)
		args = append(args, string(*params.Status))
		arg++
	}
	if params.AssignedTo != nil {
		where += fmt.Sprintf(` AND assigned_to = $%d`, arg)
		args = append(args, *params.AssignedTo)
		arg++
	}
	if params.Search != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`, arg, arg, arg)
		args = append(args, "%"+params.Search+"%")
		arg++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM crm_leads `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM crm_leads ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, arg, arg+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var results []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		results = append(results, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", err)
	}
	return results, total, nil
}

// ListCallLogs returns the call log in chronological order.
func (r *Repo) ListCallLogs(ctx context.Context, leadID uuid.UUID) ([]domain.CallLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, outcome, details, logged_by, logged_at
		 FROM crm_lead_call_logs WHERE lead_id = $1 ORDER BY logged_at ASC, id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	var results []domain.CallLog
	for rows.Next() {
		var entry domain.CallLog
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.Outcome, &entry.Details, &entry.By, &entry.At); err != nil {
			return nil, fmt.Errorf("scan call log: %w", err)
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

// ListFollowUps returns the follow-up schedule in chronological order.
func (r *Repo) ListFollowUps(ctx context.Context, leadID uuid.UUID) ([]domain.FollowUp, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lead_id, due_at, note, scheduled_by, status, completed_at, created_at
		 FROM crm_lead_follow_ups WHERE lead_id = $1 ORDER BY created_at ASC, id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var results []domain.FollowUp
	for rows.Next() {
		var entry domain.FollowUp
		var status string
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.DueAt, &entry.Note, &entry.ScheduledBy, &status, &entry.CompletedAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		entry.Status = domain.FollowUpStatus(status)
		results = append(results, entry)
	}
	return results, rows.Err()
}

// WithTx runs fn inside a transaction.
func (r *Repo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin leads tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LockLead locks the lead row for an interaction write.
func (r *Repo) LockLead(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(tx.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM crm_leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return domain.Lead{}, fmt.Errorf("lock lead: %w", err)
	}
	return lead, nil
}

// CallLogExists checks the interaction idempotency key (by, at, outcome).
func (r *Repo) CallLogExists(ctx context.Context, tx pgx.Tx, leadID, by uuid.UUID, at time.Time, outcome string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM crm_lead_call_logs
			WHERE lead_id = $1 AND logged_by = $2 AND logged_at = $3 AND outcome = $4
		)`, leadID, by, at, outcome).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check call log: %w", err)
	}
	return exists, nil
}

// ApplyInteraction writes the call log and the planned effect in the
// caller's transaction: resolve the pending follow-up, schedule the next
// one, and move the lead's micro-state.
func (r *Repo) ApplyInteraction(ctx context.Context, tx pgx.Tx, params InteractionParams) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO crm_lead_call_logs (lead_id, outcome, details, logged_by, logged_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		params.LeadID, params.Outcome, params.Details, params.By, params.At)
	if err != nil {
		return fmt.Errorf("insert call log: %w", err)
	}

	effect := params.Effect

	if effect.ResolvePendingAs != "" {
		_, err = tx.Exec(ctx,
			`UPDATE crm_lead_follow_ups SET status = $2, completed_at = $3
			 WHERE lead_id = $1 AND status = 'pending'`,
			params.LeadID, string(effect.ResolvePendingAs), params.At)
		if err != nil {
			return fmt.Errorf("resolve pending follow-up: %w", err)
		}
	}

	if effect.ScheduleFollowUp {
		_, err = tx.Exec(ctx,
			`INSERT INTO crm_lead_follow_ups (lead_id, due_at, note, scheduled_by, status)
			 VALUES ($1, $2, $3, $4, 'pending')`,
			params.LeadID, *params.Payload.FollowUpAt, params.Payload.FollowUpNote, params.By)
		if err != nil {
			return fmt.Errorf("schedule follow-up: %w", err)
		}
	}

	if !effect.StatusChanged {
		_, err = tx.Exec(ctx, `UPDATE crm_leads SET updated_at = now() WHERE id = $1`, params.LeadID)
		if err != nil {
			return fmt.Errorf("touch lead: %w", err)
		}
		return nil
	}

	if effect.Reject {
		_, err = tx.Exec(ctx,
			`UPDATE crm_leads SET status = $2, assigned_to = NULL, assigned_at = NULL,
				rejection_reason = $3, rejected_by = $4, rejected_at = $5, updated_at = now()
			 WHERE id = $1`,
			params.LeadID, string(effect.NewStatus), params.Payload.RejectReason, params.By, params.At)
		if err != nil {
			return fmt.Errorf("reject lead: %w", err)
		}
		return nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE crm_leads SET status = $2, updated_at = now() WHERE id = $1`,
		params.LeadID, string(effect.NewStatus))
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return nil
}

// SoftDelete moves the lead to the trash.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE crm_leads SET deleted_at = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("soft delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// Restore brings a trashed lead back. A lead whose conversion already
// produced a registration stays converted and cannot be restored.
func (r *Repo) Restore(ctx context.Context, id uuid.UUID) error {
	var reused bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM crm_registrations WHERE lead_id = $1)`, id).Scan(&reused)
	if err != nil {
		return fmt.Errorf("check lead reuse: %w", err)
	}
	if reused {
		return apperr.Conflict("lead was already converted into a registration")
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE crm_leads SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL`,
		id)
	if err != nil {
		return fmt.Errorf("restore lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// Stats aggregates the dashboard counts.
func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM crm_leads WHERE deleted_at IS NULL`).Scan(&stats.Total); err != nil {
		return Stats{}, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM crm_leads WHERE deleted_at IS NULL GROUP BY status ORDER BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("lead status stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row StatusCount
		var status string
		if err := rows.Scan(&status, &row.Count); err != nil {
			return Stats{}, fmt.Errorf("scan status stat: %w", err)
		}
		row.Status = domain.Status(status)
		stats.ByStatus = append(stats.ByStatus, row)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	assigneeRows, err := r.pool.Query(ctx, `
		SELECT e.id, e.name, count(*)
		FROM crm_leads l JOIN crm_employees e ON e.id = l.assigned_to
		WHERE l.deleted_at IS NULL
		GROUP BY e.id, e.name ORDER BY e.name`)
	if err != nil {
		return Stats{}, fmt.Errorf("lead assignee stats: %w", err)
	}
	defer assigneeRows.Close()
	for assigneeRows.Next() {
		var row AssigneeCount
		if err := assigneeRows.Scan(&row.EmployeeID, &row.EmployeeName, &row.Count); err != nil {
			return Stats{}, fmt.Errorf("scan assignee stat: %w", err)
		}
		stats.ByAssignee = append(stats.ByAssignee, row)
	}
	return stats, assigneeRows.Err()
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var status string
	var rejectionReason *string
	var rejectedBy *uuid.UUID
	var rejectedAt *time.Time

	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Source, &lead.ServiceType,
		&lead.City, &lead.Country, &status,
		&lead.AssignedTo, &lead.AssignedAt,
		&rejectionReason, &rejectedBy, &rejectedAt,
		&lead.ConvertedRegistrationID, &lead.DeletedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	if rejectionReason != nil && rejectedBy != nil && rejectedAt != nil {
		lead.Rejection = &domain.Rejection{Reason: *rejectionReason, By: *rejectedBy, At: *rejectedAt}
	}
	return lead, nil
}
