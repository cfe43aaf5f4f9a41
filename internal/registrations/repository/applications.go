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

const applicationNotFoundMessage = "application not found"

const applicationColumns = `id, registration_id, university, course, intake_term, country,
	status, rejection_reason, offer_letter_path, created_at, updated_at`

// CreateApplication inserts one (university, course) application.
func (r *Repo) CreateApplication(ctx context.Context, params CreateApplicationParams) (domain.Application, error) {
	query := `
		INSERT INTO crm_applications (registration_id, university, course, intake_term, country, status)
		VALUES ($1, $2, $3, $4, $5, 'draft')
		RETURNING ` + applicationColumns

	app, err := scanApplication(r.pool.QueryRow(ctx, query,
		params.RegistrationID, params.University, params.Course, params.IntakeTerm, params.Country))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Application{}, apperr.Conflict("application for this university and course already exists")
		}
		return domain.Application{}, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

// GetApplication retrieves an application by ID.
func (r *Repo) GetApplication(ctx context.Context, id uuid.UUID) (domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM crm_applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, apperr.NotFound(applicationNotFoundMessage)
		}
		return domain.Application{}, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// ListApplications returns a registration's applications.
func (r *Repo) ListApplications(ctx context.Context, registrationID uuid.UUID) ([]domain.Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM crm_applications WHERE registration_id = $1 ORDER BY created_at ASC`,
		registrationID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var results []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		results = append(results, app)
	}
	return results, rows.Err()
}

// UpdateApplication patches academic metadata.
func (r *Repo) UpdateApplication(ctx context.Context, params UpdateApplicationParams) (domain.Application, error) {
	query := `
		UPDATE crm_applications SET
			university = COALESCE($2, university),
			course = COALESCE($3, course),
			intake_term = COALESCE($4, intake_term),
			country = COALESCE($5, country),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + applicationColumns

	app, err := scanApplication(r.pool.QueryRow(ctx, query,
		params.ID, params.University, params.Course, params.IntakeTerm, params.Country))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, apperr.NotFound(applicationNotFoundMessage)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Application{}, apperr.Conflict("application for this university and course already exists")
		}
		return domain.Application{}, fmt.Errorf("update application: %w", err)
	}
	return app, nil
}

// SetApplicationStatus writes the status and the rejection reason together.
func (r *Repo) SetApplicationStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus, reason *string) (domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`UPDATE crm_applications SET status = $2, rejection_reason = $3, updated_at = now()
		 WHERE id = $1 RETURNING `+applicationColumns,
		id, string(status), reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, apperr.NotFound(applicationNotFoundMessage)
		}
		return domain.Application{}, fmt.Errorf("set application status: %w", err)
	}
	return app, nil
}

// SetOfferLetter records the uploaded offer letter path.
func (r *Repo) SetOfferLetter(ctx context.Context, id uuid.UUID, path string) (domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`UPDATE crm_applications SET offer_letter_path = $2, updated_at = now()
		 WHERE id = $1 RETURNING `+applicationColumns,
		id, path))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, apperr.NotFound(applicationNotFoundMessage)
		}
		return domain.Application{}, fmt.Errorf("set offer letter: %w", err)
	}
	return app, nil
}

func scanApplication(row pgx.Row) (domain.Application, error) {
	var app domain.Application
	var status string
	err := row.Scan(
		&app.ID, &app.RegistrationID, &app.University, &app.Course, &app.IntakeTerm, &app.Country,
		&status, &app.RejectionReason, &app.OfferLetterPath, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return domain.Application{}, err
	}
	app.Status = domain.ApplicationStatus(status)
	return app, nil
}
