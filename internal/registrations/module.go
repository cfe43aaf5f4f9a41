// Package registrations provides the lifecycle engine bounded context
// module: lead conversion, departmental ownership, university applications,
// the loan state machine, payments, and retention.
package registrations

import (
	"educrm_backend/internal/adapters/storage"
	"educrm_backend/internal/audit"
	"educrm_backend/internal/events"
	apphttp "educrm_backend/internal/http"
	"educrm_backend/internal/registrations/handler"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/service"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the registrations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the registrations module with all its
// dependencies. The document gate comes from the documents module; the
// blob store holds offer letters.
func NewModule(pool *pgxpool.Pool, gate service.DocumentGate, blobs storage.BlobStore, auditor audit.Recorder, bus events.Bus, offerBucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, gate, blobs, auditor, bus, offerBucket, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "registrations"
}

// Service returns the service layer.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts registration, application, and loan routes on the
// provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	regs := ctx.Protected.Group("/registrations")
	regs.POST("/convert", m.handler.ConvertLead)
	regs.GET("", m.handler.List)
	regs.GET("/:id", m.handler.GetByID)
	regs.POST("/:id/complete-counsellor", m.handler.CompleteCounsellorTask)
	regs.POST("/:id/admission-completed", m.handler.MarkAdmissionCompleted)
	regs.POST("/:id/loan-completed", m.handler.MarkLoanCompleted)
	regs.PATCH("/:id/loan-required", m.handler.SetLoanRequired)
	regs.POST("/:id/defer", m.handler.DeferIntake)
	regs.POST("/:id/cancel", m.handler.Cancel)
	regs.POST("/:id/installments", m.handler.RecordInstallment)
	regs.GET("/:id/installments", m.handler.ListInstallments)
	regs.POST("/:id/applications", m.handler.CreateApplication)
	regs.GET("/:id/applications", m.handler.ListApplications)
	regs.POST("/:id/loan", m.handler.CreateLoan)
	regs.GET("/:id/loan", m.handler.GetLoan)
	regs.DELETE("/:id", m.handler.SoftDelete)
	regs.POST("/:id/restore", m.handler.Restore)

	apps := ctx.Protected.Group("/applications")
	apps.PUT("/:id", m.handler.UpdateApplication)
	apps.PATCH("/:id/status", m.handler.SetApplicationStatus)
	apps.POST("/:id/offer-letter", m.handler.UploadOfferLetter)
	apps.GET("/:id/offer-letter", m.handler.OfferLetterURL)

	loans := ctx.Protected.Group("/loans")
	loans.PUT("/:id", m.handler.UpdateLoan)
	loans.PATCH("/:id/status", m.handler.SetLoanStatus)
	loans.POST("/:id/payments", m.handler.RecordLoanPayment)
	loans.GET("/:id/payments", m.handler.ListLoanPayments)

	// Purge is super-admin only.
	ctx.Admin.DELETE("/registrations/:id/purge", m.handler.Purge)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
