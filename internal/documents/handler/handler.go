package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"educrm_backend/internal/documents/domain"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/documents/service"
	"educrm_backend/internal/documents/transport"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/platform/httpkit"
	"educrm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid document ID"
	msgInvalidOwner     = "invalid document owner"
)

// Handler handles HTTP requests for the document gate.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new documents handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Upload accepts a multipart file for (owner, docId).
// POST /api/v1/documents/:ownerKind/:ownerId/:docId
func (h *Handler) Upload(c *gin.Context) {
	ownerKind, ownerID, ok := parseOwner(c)
	if !ok {
		return
	}
	docID := c.Param("docId")
	if docID == "" {
		httpkit.Error(c, http.StatusBadRequest, "docId is required", nil)
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(c.Request.Context(), actor, service.UploadParams{
		OwnerKind:   ownerKind,
		OwnerID:     ownerID,
		DocID:       docID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Verify records one party's verdict on a document.
// POST /api/v1/documents/:id/verify
func (h *Handler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListByOwner returns all documents of a subject.
// GET /api/v1/documents/:ownerKind/:ownerId
func (h *Handler) ListByOwner(c *gin.Context) {
	ownerKind, ownerID, ok := parseOwner(c)
	if !ok {
		return
	}

	result, err := h.svc.ListByOwner(c.Request.Context(), ownerKind, ownerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Completeness evaluates a subject against a stage's required doc set.
// GET /api/v1/documents/:ownerKind/:ownerId/completeness?stage=counsellor
func (h *Handler) Completeness(c *gin.Context) {
	ownerKind, ownerID, ok := parseOwner(c)
	if !ok {
		return
	}
	stage := requirements.Stage(c.Query("stage"))
	if stage != requirements.StageCounsellor && stage != requirements.StageAdmission && stage != requirements.StageLoan {
		httpkit.Error(c, http.StatusBadRequest, "invalid stage", nil)
		return
	}

	result, err := h.svc.Completeness(c.Request.Context(), ownerKind, ownerID, stage)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CompletenessResponse{
		Complete: result.Complete,
		Missing:  result.Missing,
		Progress: result.Progress,
	})
}

// DownloadURL returns a presigned download link.
// GET /api/v1/documents/:id/download
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.DownloadURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseOwner(c *gin.Context) (domain.OwnerKind, uuid.UUID, bool) {
	ownerKind := domain.OwnerKind(c.Param("ownerKind"))
	if ownerKind != domain.OwnerRegistration && ownerKind != domain.OwnerLoan {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOwner, nil)
		return "", uuid.Nil, false
	}
	ownerID, err := uuid.Parse(c.Param("ownerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidOwner, nil)
		return "", uuid.Nil, false
	}
	return ownerKind, ownerID, true
}

func mustGetActor(c *gin.Context) (identitydomain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return identitydomain.Actor{}, false
	}
	return identitydomain.NewActor(identity.EmployeeID(), identity.Role()), true
}
