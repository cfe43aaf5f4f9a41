// Package repository persists registrations, their payment ledger,
// applications, and loans.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/internal/registrations/domain"
	"educrm_backend/platform/apperr"
)

const registrationNotFoundMessage = "registration not found"

const registrationColumns = `id, public_id, lead_id, student_name, student_email, student_phone,
	total_amount, paid_amount,
	current_owner, origin_counsellor, last_transition_by, last_transition_at,
	loan_required, admission_completed, loan_completed, counsellor_completed_at,
	admission_status, cancel_reason, is_test_data, deleted_at, created_at, updated_at`

// successPredicate is the derived success-registry membership test.
const successPredicate = `admission_completed AND (NOT loan_required OR loan_completed) AND deleted_at IS NULL`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new registrations repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// WithTx runs fn inside a transaction.
func (r *Repo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registrations tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CountAll counts every registration ever created, soft-deleted included.
// The public id sequence never reuses a slot.
func (r *Repo) CountAll(ctx context.Context, tx pgx.Tx) (int64, error) {
	var count int64
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM crm_registrations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// StudentEmailExists checks for a duplicate student email among live
// registrations.
func (r *Repo) StudentEmailExists(ctx context.Context, tx pgx.Tx, email string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM crm_registrations WHERE lower(student_email) = lower($1) AND deleted_at IS NULL)`,
		email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student email: %w", err)
	}
	return exists, nil
}

// CreateTx inserts the registration inside the conversion transaction.
func (r *Repo) CreateTx(ctx context.Context, tx pgx.Tx, params CreateRegistrationParams) (domain.Registration, error) {
	query := `
		INSERT INTO crm_registrations (
			public_id, lead_id, student_name, student_email, student_phone,
			total_amount, paid_amount, current_owner, origin_counsellor,
			loan_required, admission_status, is_test_data
		)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 'counsellor', $7, $8, 'in_progress', $9)
		RETURNING ` + registrationColumns

	reg, err := scanRegistration(tx.QueryRow(ctx, query,
		params.PublicID, params.LeadID, params.StudentName, params.StudentEmail, params.StudentPhone,
		params.TotalAmount, params.OriginCounsellor, params.LoanRequired, params.IsTestData,
	))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("create registration: %w", err)
	}
	return reg, nil
}

// MarkLeadConvertedTx flips the source lead to converted in the same
// transaction. The status guard makes the conversion race-safe: only one
// transaction can convert a lead.
func (r *Repo) MarkLeadConvertedTx(ctx context.Context, tx pgx.Tx, leadID, registrationID uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx,
		`UPDATE crm_leads SET status = 'converted', converted_registration_id = $2, updated_at = now()
		 WHERE id = $1 AND status = 'converting_to_reg' AND deleted_at IS NULL`,
		leadID, registrationID)
	if err != nil {
		return false, fmt.Errorf("mark lead converted: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByID retrieves a registration by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM crm_registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Registration{}, apperr.NotFound(registrationNotFoundMessage)
		}
		return domain.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// LockRegistration locks the registration row for a lifecycle transition.
// Concurrent transitions serialize here; the loser re-reads a state that
// fails its precondition.
func (r *Repo) LockRegistration(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Registration, error) {
	reg, err := scanRegistration(tx.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM crm_registrations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Registration{}, apperr.NotFound(registrationNotFoundMessage)
		}
		return domain.Registration{}, fmt.Errorf("lock registration: %w", err)
	}
	return reg, nil
}

// UpdateLifecycleTx writes the lifecycle snapshot back under the row lock.
func (r *Repo) UpdateLifecycleTx(ctx context.Context, tx pgx.Tx, update LifecycleUpdate) error {
	_, err := tx.Exec(ctx, `
		UPDATE crm_registrations SET
			current_owner = $2,
			loan_required = $3,
			admission_completed = $4,
			loan_completed = $5,
			counsellor_completed_at = $6,
			admission_status = $7,
			cancel_reason = $8,
			last_transition_by = $9,
			last_transition_at = $10,
			updated_at = now()
		WHERE id = $1`,
		update.RegistrationID, string(update.CurrentOwner), update.LoanRequired,
		update.AdmissionCompleted, update.LoanCompleted, update.CounsellorCompletedAt,
		string(update.AdmissionStatus), update.CancelReason,
		update.TransitionBy, update.TransitionAt,
	)
	if err != nil {
		return fmt.Errorf("update lifecycle: %w", err)
	}
	return nil
}

// List retrieves registrations with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Registration, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	arg := 1

	if !params.IncludeDeleted {
		where += ` AND deleted_at IS NULL`
	}
	if params.SuccessOnly {
		where += ` AND ` + successPredicate
	}
	if params.Owner != nil {
		where += fmt.Sprintf(` AND current_owner = $%d`, arg)
		args = append(args, string(*params.Owner))
		arg++
	}
	if params.Search != "" {
		where += fmt.Sprintf(` AND (student_name ILIKE $%d OR student_email ILIKE $%d OR public_id ILIKE $%d)`, arg, arg, arg)
		args = append(args, "%"+params.Search+"%")
		arg++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM crm_registrations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	query := `SELECT ` + registrationColumns + ` FROM crm_registrations ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, arg, arg+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var results []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan registration: %w", err)
		}
		results = append(results, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// SoftDelete moves the registration to the trash.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE crm_registrations SET deleted_at = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id, at)
	if err != nil {
		return fmt.Errorf("soft delete registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(registrationNotFoundMessage)
	}
	return nil
}

// Restore reverses a soft delete. Only deleted_at and updated_at change;
// the lifecycle record comes back exactly as it was.
func (r *Repo) Restore(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE crm_registrations SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL`,
		id)
	if err != nil {
		return fmt.Errorf("restore registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(registrationNotFoundMessage)
	}
	return nil
}

// PurgeTx hard-deletes the registration. Child rows (installments,
// applications, loans, payments, documents) go with it via foreign keys.
func (r *Repo) PurgeTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM crm_documents WHERE owner_kind = 'registration' AND owner_id = $1`, id); err != nil {
		return fmt.Errorf("purge registration documents: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM crm_documents WHERE owner_kind = 'loan' AND owner_id IN (SELECT id FROM crm_loan_applications WHERE registration_id = $1)`, id); err != nil {
		return fmt.Errorf("purge loan documents: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM crm_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(registrationNotFoundMessage)
	}
	return nil
}

// InsertInstallmentTx appends one installment to the ledger.
func (r *Repo) InsertInstallmentTx(ctx context.Context, tx pgx.Tx, params InstallmentParams) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO crm_registration_installments (registration_id, amount, notes, recorded_by, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		params.RegistrationID, params.Amount, params.Notes, params.RecordedBy, params.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert installment: %w", err)
	}
	return nil
}

// AddPaidAmountTx moves the paid total in the same transaction as the
// installment insert, keeping paid = Σ installments.
func (r *Repo) AddPaidAmountTx(ctx context.Context, tx pgx.Tx, registrationID uuid.UUID, delta int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE crm_registrations SET paid_amount = paid_amount + $2, updated_at = now() WHERE id = $1`,
		registrationID, delta)
	if err != nil {
		return fmt.Errorf("add paid amount: %w", err)
	}
	return nil
}

// ListInstallments returns the ledger in chronological order.
func (r *Repo) ListInstallments(ctx context.Context, registrationID uuid.UUID) ([]domain.Installment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, registration_id, amount, notes, recorded_by, recorded_at
		 FROM crm_registration_installments WHERE registration_id = $1 ORDER BY recorded_at ASC, id ASC`,
		registrationID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var results []domain.Installment
	for rows.Next() {
		var item domain.Installment
		if err := rows.Scan(&item.ID, &item.RegistrationID, &item.Amount, &item.Notes, &item.RecordedBy, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func scanRegistration(row pgx.Row) (domain.Registration, error) {
	var reg domain.Registration
	var owner, admissionStatus string

	err := row.Scan(
		&reg.ID, &reg.PublicID, &reg.LeadID, &reg.StudentName, &reg.StudentEmail, &reg.StudentPhone,
		&reg.Payment.TotalAmount, &reg.Payment.PaidAmount,
		&owner, &reg.Lifecycle.OriginCounsellor, &reg.Lifecycle.LastTransitionBy, &reg.Lifecycle.LastTransitionAt,
		&reg.Lifecycle.LoanRequired, &reg.Lifecycle.AdmissionCompleted, &reg.Lifecycle.LoanCompleted,
		&reg.Lifecycle.CounsellorCompletedAt,
		&admissionStatus, &reg.CancelReason, &reg.IsTestData, &reg.DeletedAt, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.Lifecycle.CurrentOwner = domain.Owner(owner)
	reg.AdmissionStatus = domain.AdmissionStatus(admissionStatus)
	return reg, nil
}
