package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/leads/service"
	"educrm_backend/internal/leads/transport"
	"educrm_backend/platform/httpkit"
	"educrm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Intake accepts a public enquiry form submission.
// POST /api/v1/public/leads
func (h *Handler) Intake(c *gin.Context) {
	var req transport.IntakeLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Intake(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// SubmitInteraction records one call and applies the chosen next step.
// POST /api/v1/leads/:id/interactions
func (h *Handler) SubmitInteraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SubmitInteractionRequest
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

	result, err := h.svc.SubmitInteraction(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// List returns a filtered page of leads.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns a lead with its interaction history.
// GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SoftDelete moves a lead to the trash.
// DELETE /api/v1/leads/:id
func (h *Handler) SoftDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.SoftDelete(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// Restore brings a trashed lead back.
// POST /api/v1/leads/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Restore(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"restored": true})
}

// Stats returns the cached dashboard aggregate.
// GET /api/v1/leads/stats
func (h *Handler) Stats(c *gin.Context) {
	result, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func mustGetActor(c *gin.Context) (identitydomain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return identitydomain.Actor{}, false
	}
	return identitydomain.NewActor(identity.EmployeeID(), identity.Role()), true
}
