package transport

import (
	"time"

	"github.com/google/uuid"

	"educrm_backend/internal/documents/domain"
)

// VerifyDocumentRequest carries one party's verdict.
type VerifyDocumentRequest struct {
	Party    string `json:"party" validate:"required,oneof=counsellor admission"`
	Decision string `json:"decision" validate:"required,oneof=verified rejected"`
	Remarks  string `json:"remarks" validate:"omitempty,max=1000"`
}

// OpinionResponse is one party's verdict in API responses.
type OpinionResponse struct {
	Status  string     `json:"status,omitempty"`
	By      *uuid.UUID `json:"by,omitempty"`
	At      *time.Time `json:"at,omitempty"`
	Remarks string     `json:"remarks,omitempty"`
}

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID          uuid.UUID       `json:"id"`
	OwnerKind   string          `json:"ownerKind"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	DocID       string          `json:"docId"`
	FileName    string          `json:"fileName"`
	ContentType string          `json:"contentType"`
	Status      string          `json:"status"`
	Counsellor  OpinionResponse `json:"counsellor"`
	Admission   OpinionResponse `json:"admission"`
	UploadedBy  uuid.UUID       `json:"uploadedBy"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// DocumentListResponse wraps a subject's documents.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Total int                `json:"total"`
}

// CompletenessResponse summarizes progress through a required doc set.
type CompletenessResponse struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing"`
	Progress int      `json:"progress"`
}

// DownloadURLResponse carries a presigned download link.
type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// ToDocumentResponse maps a domain document onto the API shape. The file
// path stays internal; downloads go through presigned URLs.
func ToDocumentResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		OwnerKind:   string(doc.OwnerKind),
		OwnerID:     doc.OwnerID,
		DocID:       doc.DocID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Status:      string(doc.Status),
		Counsellor: OpinionResponse{
			Status:  string(doc.Counsellor.Status),
			By:      doc.Counsellor.By,
			At:      doc.Counsellor.At,
			Remarks: doc.Counsellor.Remarks,
		},
		Admission: OpinionResponse{
			Status:  string(doc.Admission.Status),
			By:      doc.Admission.By,
			At:      doc.Admission.At,
			Remarks: doc.Admission.Remarks,
		},
		UploadedBy: doc.UploadedBy,
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
