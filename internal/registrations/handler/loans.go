package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/httpkit"
)

const msgInvalidLoanID = "invalid loan ID"

// CreateLoan opens the registration's loan application.
// POST /api/v1/registrations/:id/loan
func (h *Handler) CreateLoan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateLoanRequest
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

	result, err := h.svc.CreateLoan(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetLoan returns the registration's loan application.
// GET /api/v1/registrations/:id/loan
func (h *Handler) GetLoan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetLoanByRegistration(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateLoan patches loan fields.
// PUT /api/v1/loans/:id
func (h *Handler) UpdateLoan(c *gin.Context) {
	id, ok := parseLoanID(c)
	if !ok {
		return
	}
	var req transport.UpdateLoanRequest
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

	result, err := h.svc.UpdateLoan(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetLoanStatus moves the loan along its state machine.
// PATCH /api/v1/loans/:id/status
func (h *Handler) SetLoanStatus(c *gin.Context) {
	id, ok := parseLoanID(c)
	if !ok {
		return
	}
	var req transport.SetLoanStatusRequest
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

	result, err := h.svc.SetLoanStatus(c.Request.Context(), actor, id, domain.LoanStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecordLoanPayment appends one payment to the loan ledger.
// POST /api/v1/loans/:id/payments
func (h *Handler) RecordLoanPayment(c *gin.Context) {
	id, ok := parseLoanID(c)
	if !ok {
		return
	}
	var req transport.RecordLoanPaymentRequest
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

	result, err := h.svc.RecordLoanPayment(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListLoanPayments returns the loan's payment ledger.
// GET /api/v1/loans/:id/payments
func (h *Handler) ListLoanPayments(c *gin.Context) {
	id, ok := parseLoanID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListLoanPayments(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseLoanID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLoanID, nil)
		return uuid.Nil, false
	}
	return id, true
}
