// Package identity provides the identity bounded context module: employee
// login and the employee directory that feeds the assignment engine.
package identity

import (
	"educrm_backend/internal/audit"
	apphttp "educrm_backend/internal/http"
	"educrm_backend/internal/identity/handler"
	"educrm_backend/internal/identity/repository"
	"educrm_backend/internal/identity/service"
	"educrm_backend/platform/config"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the identity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the identity module with all its dependencies.
func NewModule(pool *pgxpool.Pool, auditor audit.Recorder, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, auditor, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "identity"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts identity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/auth/login", m.handler.Login)

	ctx.Protected.GET("/me", m.handler.Me)
	ctx.Protected.GET("/employees", m.handler.List)
	ctx.Protected.GET("/employees/:id", m.handler.GetByID)
	ctx.Protected.POST("/employees", m.handler.Create)
	ctx.Protected.PUT("/employees/:id", m.handler.Update)
	ctx.Protected.PATCH("/employees/:id/status", m.handler.SetStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
