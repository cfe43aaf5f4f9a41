// Package leads provides the leads bounded context module: public intake,
// the interaction ledger, trash handling, and dashboard stats.
package leads

import (
	"educrm_backend/internal/audit"
	"educrm_backend/internal/events"
	apphttp "educrm_backend/internal/http"
	"educrm_backend/internal/leads/handler"
	"educrm_backend/internal/leads/repository"
	"educrm_backend/internal/leads/service"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, auditor audit.Recorder, bus events.Bus, enqueuer service.AssignEnqueuer, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, auditor, bus, enqueuer, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake with the stricter per-IP limiter.
	ctx.Public.POST("/leads", ctx.IntakeRateLimiter.RateLimit(), m.handler.Intake)

	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/stats", m.handler.Stats)
	ctx.Protected.GET("/leads/:id", m.handler.GetByID)
	ctx.Protected.POST("/leads/:id/interactions", m.handler.SubmitInteraction)
	ctx.Protected.DELETE("/leads/:id", m.handler.SoftDelete)
	ctx.Protected.POST("/leads/:id/restore", m.handler.Restore)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
