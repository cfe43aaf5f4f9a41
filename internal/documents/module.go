// Package documents provides the document gate bounded context module:
// uploads, two-party verification, and stage completeness.
package documents

import (
	"educrm_backend/internal/adapters/storage"
	"educrm_backend/internal/audit"
	"educrm_backend/internal/documents/handler"
	"educrm_backend/internal/documents/repository"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/documents/service"
	apphttp "educrm_backend/internal/http"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the documents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the documents module with all its dependencies.
func NewModule(pool *pgxpool.Pool, blobs storage.BlobStore, required *requirements.Set, auditor audit.Recorder, bucket string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, blobs, required, auditor, bucket, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "documents"
}

// Service returns the service layer; the registration lifecycle consumes
// its completeness check as the document gate.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts document routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/documents")
	group.POST("/owner/:ownerKind/:ownerId/:docId", m.handler.Upload)
	group.GET("/owner/:ownerKind/:ownerId", m.handler.ListByOwner)
	group.GET("/owner/:ownerKind/:ownerId/completeness", m.handler.Completeness)
	group.POST("/:id/verify", m.handler.Verify)
	group.GET("/:id/download", m.handler.DownloadURL)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
