// Package handler exposes the registration lifecycle over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/service"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/httpkit"
	"educrm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid registration ID"
)

// Handler handles HTTP requests for registrations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new registrations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ConvertLead creates a registration from a converting lead.
// POST /api/v1/registrations/convert
func (h *Handler) ConvertLead(c *gin.Context) {
	var req transport.ConvertLeadRequest
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

	result, err := h.svc.ConvertLead(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List returns a filtered page of registrations.
// GET /api/v1/registrations
func (h *Handler) List(c *gin.Context) {
	var req transport.ListRegistrationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns one registration.
// GET /api/v1/registrations/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CompleteCounsellorTask hands the registration to admission once the
// counsellor document set is verified.
// POST /api/v1/registrations/:id/complete-counsellor
func (h *Handler) CompleteCounsellorTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.CompleteCounsellorTask(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkAdmissionCompleted sets or reverts the admission-completed flag.
// POST /api/v1/registrations/:id/admission-completed
func (h *Handler) MarkAdmissionCompleted(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.MarkAdmissionCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.MarkAdmissionCompleted(c.Request.Context(), actor, id, req.Completed)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkLoanCompleted closes the loan leg of the workflow.
// POST /api/v1/registrations/:id/loan-completed
func (h *Handler) MarkLoanCompleted(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.MarkLoanCompleted(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetLoanRequired toggles the loan leg.
// PATCH /api/v1/registrations/:id/loan-required
func (h *Handler) SetLoanRequired(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SetLoanRequiredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.SetLoanRequired(c.Request.Context(), actor, id, req.LoanRequired)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeferIntake records a move to a later intake term.
// POST /api/v1/registrations/:id/defer
func (h *Handler) DeferIntake(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.DeferIntakeRequest
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

	result, err := h.svc.DeferIntake(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel terminates an in-progress admission.
// POST /api/v1/registrations/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CancelRequest
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

	result, err := h.svc.Cancel(c.Request.Context(), actor, id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecordInstallment appends one payment to the registration ledger.
// POST /api/v1/registrations/:id/installments
func (h *Handler) RecordInstallment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RecordInstallmentRequest
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

	result, err := h.svc.RecordInstallment(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListInstallments returns the registration's payment ledger.
// GET /api/v1/registrations/:id/installments
func (h *Handler) ListInstallments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListInstallments(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SoftDelete moves a registration to the trash.
// DELETE /api/v1/registrations/:id
func (h *Handler) SoftDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
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

// Restore brings a trashed registration back.
// POST /api/v1/registrations/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
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

// Purge hard-deletes a test registration.
// DELETE /api/v1/registrations/:id/purge
func (h *Handler) Purge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Purge(c.Request.Context(), actor, id)) {
		return
	}
	httpkit.OK(c, gin.H{"purged": true})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func mustGetActor(c *gin.Context) (identitydomain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return identitydomain.Actor{}, false
	}
	return identitydomain.NewActor(identity.EmployeeID(), identity.Role()), true
}
