package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"educrm_backend/internal/registrations/domain"
	"educrm_backend/platform/apperr"
)

const loanNotFoundMessage = "loan application not found"

const loanColumns = `id, registration_id, bank_name, applied_amount, sanctioned_amount, processing_fee,
	co_applicant_name, co_applicant_phone, co_applicant_relation, co_applicant_income_source,
	status, total_paid, created_at, updated_at`

// CreateLoan inserts the registration's loan application draft. A unique
// index on registration_id enforces at most one loan per registration.
func (r *Repo) CreateLoan(ctx context.Context, params CreateLoanParams) (domain.LoanApplication, error) {
	query := `
		INSERT INTO crm_loan_applications (
			registration_id, bank_name, applied_amount, processing_fee,
			co_applicant_name, co_applicant_phone, co_applicant_relation, co_applicant_income_source,
			status, total_paid
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'draft', 0)
		RETURNING ` + loanColumns

	loan, err := scanLoan(r.pool.QueryRow(ctx, query,
		params.RegistrationID, params.BankName, params.AppliedAmount, params.ProcessingFee,
		params.CoApplicant.Name, params.CoApplicant.Phone, params.CoApplicant.Relation, params.CoApplicant.IncomeSource,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.LoanApplication{}, apperr.Conflict("registration already has a loan application")
		}
		return domain.LoanApplication{}, fmt.Errorf("create loan: %w", err)
	}
	return loan, nil
}

// GetLoan retrieves a loan application by ID.
func (r *Repo) GetLoan(ctx context.Context, id uuid.UUID) (domain.LoanApplication, error) {
	loan, err := scanLoan(r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM crm_loan_applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoanApplication{}, apperr.NotFound(loanNotFoundMessage)
		}
		return domain.LoanApplication{}, fmt.Errorf("get loan: %w", err)
	}
	return loan, nil
}

// GetLoanByRegistration retrieves the loan attached to a registration.
func (r *Repo) GetLoanByRegistration(ctx context.Context, registrationID uuid.UUID) (domain.LoanApplication, error) {
	loan, err := scanLoan(r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM crm_loan_applications WHERE registration_id = $1`, registrationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoanApplication{}, apperr.NotFound(loanNotFoundMessage)
		}
		return domain.LoanApplication{}, fmt.Errorf("get loan by registration: %w", err)
	}
	return loan, nil
}

// UpdateLoanTx patches loan fields under the row lock taken by LockLoan.
func (r *Repo) UpdateLoanTx(ctx context.Context, tx pgx.Tx, params UpdateLoanParams) (domain.LoanApplication, error) {
	var coName, coPhone, coRelation, coIncome *string
	if params.CoApplicant != nil {
		coName = &params.CoApplicant.Name
		coPhone = &params.CoApplicant.Phone
		coRelation = &params.CoApplicant.Relation
		coIncome = &params.CoApplicant.IncomeSource
	}

	query := `
		UPDATE crm_loan_applications SET
			bank_name = COALESCE($2, bank_name),
			applied_amount = COALESCE($3, applied_amount),
			sanctioned_amount = COALESCE($4, sanctioned_amount),
			processing_fee = COALESCE($5, processing_fee),
			co_applicant_name = COALESCE($6, co_applicant_name),
			co_applicant_phone = COALESCE($7, co_applicant_phone),
			co_applicant_relation = COALESCE($8, co_applicant_relation),
			co_applicant_income_source = COALESCE($9, co_applicant_income_source),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + loanColumns

	loan, err := scanLoan(tx.QueryRow(ctx, query,
		params.ID, params.BankName, params.AppliedAmount, params.SanctionedAmount, params.ProcessingFee,
		coName, coPhone, coRelation, coIncome))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoanApplication{}, apperr.NotFound(loanNotFoundMessage)
		}
		return domain.LoanApplication{}, fmt.Errorf("update loan: %w", err)
	}
	return loan, nil
}

// LockLoan locks the loan row for a status change or payment.
func (r *Repo) LockLoan(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.LoanApplication, error) {
	loan, err := scanLoan(tx.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM crm_loan_applications WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LoanApplication{}, apperr.NotFound(loanNotFoundMessage)
		}
		return domain.LoanApplication{}, fmt.Errorf("lock loan: %w", err)
	}
	return loan, nil
}

// SetLoanStatusTx writes the loan status under the row lock.
func (r *Repo) SetLoanStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.LoanStatus) error {
	_, err := tx.Exec(ctx,
		`UPDATE crm_loan_applications SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("set loan status: %w", err)
	}
	return nil
}

// InsertLoanPaymentTx appends one payment to the loan ledger.
func (r *Repo) InsertLoanPaymentTx(ctx context.Context, tx pgx.Tx, params LoanPaymentParams) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO crm_loan_payments (loan_id, amount, notes, recorded_by, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		params.LoanID, params.Amount, params.Notes, params.RecordedBy, params.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert loan payment: %w", err)
	}
	return nil
}

// AddLoanPaidTx moves the paid total in the same transaction as the
// payment insert.
func (r *Repo) AddLoanPaidTx(ctx context.Context, tx pgx.Tx, loanID uuid.UUID, delta int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE crm_loan_applications SET total_paid = total_paid + $2, updated_at = now() WHERE id = $1`,
		loanID, delta)
	if err != nil {
		return fmt.Errorf("add loan paid: %w", err)
	}
	return nil
}

// ListLoanPayments returns the payments ledger in chronological order.
func (r *Repo) ListLoanPayments(ctx context.Context, loanID uuid.UUID) ([]domain.LoanPayment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, loan_id, amount, notes, recorded_by, recorded_at
		 FROM crm_loan_payments WHERE loan_id = $1 ORDER BY recorded_at ASC, id ASC`, loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan payments: %w", err)
	}
	defer rows.Close()

	var results []domain.LoanPayment
	for rows.Next() {
		var item domain.LoanPayment
		if err := rows.Scan(&item.ID, &item.LoanID, &item.Amount, &item.Notes, &item.RecordedBy, &item.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan loan payment: %w", err)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func scanLoan(row pgx.Row) (domain.LoanApplication, error) {
	var loan domain.LoanApplication
	var status string
	err := row.Scan(
		&loan.ID, &loan.RegistrationID, &loan.BankName, &loan.AppliedAmount, &loan.SanctionedAmount,
		&loan.ProcessingFee,
		&loan.CoApplicant.Name, &loan.CoApplicant.Phone, &loan.CoApplicant.Relation, &loan.CoApplicant.IncomeSource,
		&status, &loan.TotalPaid, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return domain.LoanApplication{}, err
	}
	loan.Status = domain.LoanStatus(status)
	return loan, nil
}
