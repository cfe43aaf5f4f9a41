package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/httpkit"
)

const msgInvalidApplicationID = "invalid application ID"

// CreateApplication adds one university application to a registration.
// POST /api/v1/registrations/:id/applications
func (h *Handler) CreateApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateApplicationRequest
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

	result, err := h.svc.CreateApplication(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListApplications returns a registration's applications.
// GET /api/v1/registrations/:id/applications
func (h *Handler) ListApplications(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListApplications(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateApplication patches application academic metadata.
// PUT /api/v1/applications/:id
func (h *Handler) UpdateApplication(c *gin.Context) {
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}
	var req transport.UpdateApplicationRequest
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

	result, err := h.svc.UpdateApplication(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetApplicationStatus moves an application through its states.
// PATCH /api/v1/applications/:id/status
func (h *Handler) SetApplicationStatus(c *gin.Context) {
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}
	var req transport.SetApplicationStatusRequest
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

	result, err := h.svc.SetApplicationStatus(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UploadOfferLetter stores the application's offer letter.
// POST /api/v1/applications/:id/offer-letter
func (h *Handler) UploadOfferLetter(c *gin.Context) {
	id, ok := parseApplicationID(c)
	if !ok {
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
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	result, err := h.svc.UploadOfferLetter(c.Request.Context(), actor, id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file, fileHeader.Size)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// OfferLetterURL returns a presigned download URL for the offer letter.
// GET /api/v1/applications/:id/offer-letter
func (h *Handler) OfferLetterURL(c *gin.Context) {
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}

	url, err := h.svc.OfferLetterURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"url": url})
}

func parseApplicationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidApplicationID, nil)
		return uuid.Nil, false
	}
	return id, true
}
