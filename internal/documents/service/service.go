// Package service implements the document gate: uploads to object storage,
// two-party verification, and the completeness check consumed by the
// registration lifecycle.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"educrm_backend/internal/adapters/storage"
	"educrm_backend/internal/audit"
	"educrm_backend/internal/documents/domain"
	"educrm_backend/internal/documents/repository"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/documents/transport"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/sanitize"
)

// UploadParams carries one file upload.
type UploadParams struct {
	OwnerKind   domain.OwnerKind
	OwnerID     uuid.UUID
	DocID       string
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Service provides document gate business logic.
type Service struct {
	repo     repository.Repository
	blobs    storage.BlobStore
	required *requirements.Set
	audit    audit.Recorder
	bucket   string
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new documents service.
func New(repo repository.Repository, blobs storage.BlobStore, required *requirements.Set, auditor audit.Recorder, bucket string, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		required: required,
		audit:    auditor,
		bucket:   bucket,
		log:      log,
		now:      time.Now,
	}
}

// Upload streams the file to object storage and creates or replaces the
// document row. A replacement resets the combined status to uploaded and
// clears both opinions; the previous blob is deleted best-effort.
func (s *Service) Upload(ctx context.Context, actor identitydomain.Actor, params UploadParams) (transport.DocumentResponse, error) {
	if err := s.blobs.ValidateContentType(params.ContentType); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	if err := s.blobs.ValidateFileSize(params.Size); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}

	folder := fmt.Sprintf("%s/%s/%s", params.OwnerKind, params.OwnerID, params.DocID)
	fileKey, err := s.blobs.UploadFile(ctx, s.bucket, folder, params.FileName, params.ContentType, params.Reader, params.Size)
	if err != nil {
		return transport.DocumentResponse{}, apperr.Unavailable("document storage is unavailable")
	}

	doc, previousPath, err := s.repo.Upsert(ctx, repository.UpsertParams{
		OwnerKind:   params.OwnerKind,
		OwnerID:     params.OwnerID,
		DocID:       params.DocID,
		FileName:    params.FileName,
		FilePath:    fileKey,
		ContentType: params.ContentType,
		UploadedBy:  actor.ID,
	})
	if err != nil {
		// The row failed but the blob landed; remove it so storage does
		// not accumulate orphans.
		if cleanupErr := s.blobs.DeleteObject(ctx, s.bucket, fileKey); cleanupErr != nil {
			s.log.Error("orphan blob cleanup failed", "file_key", fileKey, "error", cleanupErr.Error())
		}
		return transport.DocumentResponse{}, err
	}

	if previousPath != "" {
		if err := s.blobs.DeleteObject(ctx, s.bucket, previousPath); err != nil {
			s.log.Error("stale blob cleanup failed", "file_key", previousPath, "error", err.Error())
		}
	}

	s.audit.Record(ctx, actor.ID, audit.ActionDocumentUploaded, audit.SubjectDocument, doc.ID, map[string]any{
		"ownerKind": string(doc.OwnerKind),
		"ownerId":   doc.OwnerID.String(),
		"docId":     doc.DocID,
	})
	return transport.ToDocumentResponse(doc), nil
}

// Verify records one party's verdict and recomputes the combined status.
// The actor must belong to the verifying party's department.
func (s *Service) Verify(ctx context.Context, actor identitydomain.Actor, documentID uuid.UUID, req transport.VerifyDocumentRequest) (transport.DocumentResponse, error) {
	party := domain.Party(req.Party)
	if !canVerifyAs(actor, party) {
		return transport.DocumentResponse{}, apperr.OwnershipDenied("cannot verify for another department")
	}

	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	decision := domain.Decision(req.Decision)
	counsellor := doc.Counsellor.Status
	admission := doc.Admission.Status
	if party == domain.PartyCounsellor {
		counsellor = decision
	} else {
		admission = decision
	}

	updated, err := s.repo.Verify(ctx, repository.VerifyParams{
		DocumentID: documentID,
		Party:      party,
		Decision:   decision,
		Remarks:    sanitize.Text(req.Remarks),
		By:         actor.ID,
		At:         s.now().UTC(),
		Combined:   domain.Combine(counsellor, admission),
	})
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionDocumentVerified, audit.SubjectDocument, documentID, map[string]any{
		"party":    string(party),
		"decision": string(decision),
		"combined": string(updated.Status),
	})
	return transport.ToDocumentResponse(updated), nil
}

// ListByOwner returns all documents of a subject.
func (s *Service) ListByOwner(ctx context.Context, ownerKind domain.OwnerKind, ownerID uuid.UUID) (transport.DocumentListResponse, error) {
	docs, err := s.repo.ListByOwner(ctx, ownerKind, ownerID)
	if err != nil {
		return transport.DocumentListResponse{}, err
	}

	items := make([]transport.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, transport.ToDocumentResponse(doc))
	}
	return transport.DocumentListResponse{Items: items, Total: len(items)}, nil
}

// Completeness evaluates a subject against the required set of a stage.
func (s *Service) Completeness(ctx context.Context, ownerKind domain.OwnerKind, ownerID uuid.UUID, stage requirements.Stage) (domain.Completeness, error) {
	docs, err := s.repo.ListByOwner(ctx, ownerKind, ownerID)
	if err != nil {
		return domain.Completeness{}, err
	}
	return domain.EvaluateCompleteness(docs, s.required.For(stage)), nil
}

// DownloadURL returns a presigned download link for a document.
func (s *Service) DownloadURL(ctx context.Context, documentID uuid.UUID) (transport.DownloadURLResponse, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return transport.DownloadURLResponse{}, err
	}

	presigned, err := s.blobs.GenerateDownloadURL(ctx, s.bucket, doc.FilePath)
	if err != nil {
		return transport.DownloadURLResponse{}, apperr.Unavailable("document storage is unavailable")
	}
	return transport.DownloadURLResponse{
		URL:       presigned.URL,
		ExpiresAt: presigned.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func canVerifyAs(actor identitydomain.Actor, party domain.Party) bool {
	if actor.Capabilities.IsSuperAdmin() {
		return true
	}
	switch party {
	case domain.PartyCounsellor:
		return actor.Department == identitydomain.DepartmentCounsellor
	case domain.PartyAdmission:
		return actor.Department == identitydomain.DepartmentAdmission
	default:
		return false
	}
}
