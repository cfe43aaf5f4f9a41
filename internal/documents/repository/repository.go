// Package repository persists documents and their verification opinions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"educrm_backend/internal/documents/domain"
	"educrm_backend/platform/apperr"
)

const documentNotFoundMessage = "document not found"

const documentColumns = `id, owner_kind, owner_id, doc_id, file_name, file_path, content_type, status,
	counsellor_status, counsellor_by, counsellor_at, counsellor_remarks,
	admission_status, admission_by, admission_at, admission_remarks,
	uploaded_by, created_at, updated_at`

// UpsertParams carries an upload or replacement.
type UpsertParams struct {
	OwnerKind   domain.OwnerKind
	OwnerID     uuid.UUID
	DocID       string
	FileName    string
	FilePath    string
	ContentType string
	UploadedBy  uuid.UUID
}

// VerifyParams carries one party's verdict.
type VerifyParams struct {
	DocumentID uuid.UUID
	Party      domain.Party
	Decision   domain.Decision
	Remarks    string
	By         uuid.UUID
	At         time.Time
	Combined   domain.CombinedStatus
}

// Repository is the persistence contract for documents.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (domain.Document, string, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Document, error)
	ListByOwner(ctx context.Context, ownerKind domain.OwnerKind, ownerID uuid.UUID) ([]domain.Document, error)
	Verify(ctx context.Context, params VerifyParams) (domain.Document, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new documents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Upsert creates or replaces the document for (owner, docID). Replacement
// resets the combined status to uploaded and clears both opinions; the
// previous file path is returned so the caller can delete the old blob.
func (r *Repo) Upsert(ctx context.Context, params UpsertParams) (domain.Document, string, error) {
	var previousPath string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(file_path, '') FROM crm_documents WHERE owner_kind = $1 AND owner_id = $2 AND doc_id = $3`,
		string(params.OwnerKind), params.OwnerID, params.DocID,
	).Scan(&previousPath)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, "", fmt.Errorf("get previous document: %w", err)
	}

	query := `
		INSERT INTO crm_documents (owner_kind, owner_id, doc_id, file_name, file_path, content_type, status, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, 'uploaded', $7)
		ON CONFLICT (owner_kind, owner_id, doc_id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			file_path = EXCLUDED.file_path,
			content_type = EXCLUDED.content_type,
			status = 'uploaded',
			counsellor_status = NULL, counsellor_by = NULL, counsellor_at = NULL, counsellor_remarks = NULL,
			admission_status = NULL, admission_by = NULL, admission_at = NULL, admission_remarks = NULL,
			uploaded_by = EXCLUDED.uploaded_by,
			updated_at = now()
		RETURNING ` + documentColumns

	doc, err := scanDocument(r.pool.QueryRow(ctx, query,
		string(params.OwnerKind), params.OwnerID, params.DocID,
		params.FileName, params.FilePath, params.ContentType, params.UploadedBy,
	))
	if err != nil {
		return domain.Document{}, "", fmt.Errorf("upsert document: %w", err)
	}
	return doc, previousPath, nil
}

// GetByID retrieves a document by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Document, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM crm_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, apperr.NotFound(documentNotFoundMessage)
		}
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListByOwner retrieves all documents for a subject.
func (r *Repo) ListByOwner(ctx context.Context, ownerKind domain.OwnerKind, ownerID uuid.UUID) ([]domain.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM crm_documents
		 WHERE owner_kind = $1 AND owner_id = $2 ORDER BY doc_id ASC`,
		string(ownerKind), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var results []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}

// Verify writes one party's verdict and the recomputed combined status.
func (r *Repo) Verify(ctx context.Context, params VerifyParams) (domain.Document, error) {
	column := "counsellor"
	if params.Party == domain.PartyAdmission {
		column = "admission"
	}

	query := fmt.Sprintf(`
		UPDATE crm_documents SET
			%[1]s_status = $2, %[1]s_by = $3, %[1]s_at = $4, %[1]s_remarks = $5,
			status = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+documentColumns, column)

	doc, err := scanDocument(r.pool.QueryRow(ctx, query,
		params.DocumentID, string(params.Decision), params.By, params.At, params.Remarks,
		string(params.Combined),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, apperr.NotFound(documentNotFoundMessage)
		}
		return domain.Document{}, fmt.Errorf("verify document: %w", err)
	}
	return doc, nil
}

func scanDocument(row pgx.Row) (domain.Document, error) {
	var doc domain.Document
	var ownerKind, status string
	var counsellorStatus, counsellorRemarks *string
	var admissionStatus, admissionRemarks *string

	err := row.Scan(
		&doc.ID, &ownerKind, &doc.OwnerID, &doc.DocID, &doc.FileName, &doc.FilePath, &doc.ContentType, &status,
		&counsellorStatus, &doc.Counsellor.By, &doc.Counsellor.At, &counsellorRemarks,
		&admissionStatus, &doc.Admission.By, &doc.Admission.At, &admissionRemarks,
		&doc.UploadedBy, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}

	doc.OwnerKind = domain.OwnerKind(ownerKind)
	doc.Status = domain.CombinedStatus(status)
	if counsellorStatus != nil {
		doc.Counsellor.Status = domain.Decision(*counsellorStatus)
	}
	if counsellorRemarks != nil {
		doc.Counsellor.Remarks = *counsellorRemarks
	}
	if admissionStatus != nil {
		doc.Admission.Status = domain.Decision(*admissionStatus)
	}
	if admissionRemarks != nil {
		doc.Admission.Remarks = *admissionRemarks
	}
	return doc, nil
}
