package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"educrm_backend/internal/adapters/storage"
	"educrm_backend/internal/audit"
	"educrm_backend/internal/documents"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/email"
	"educrm_backend/internal/events"
	apphttp "educrm_backend/internal/http"
	"educrm_backend/internal/http/router"
	"educrm_backend/internal/identity"
	"educrm_backend/internal/leads"
	leadservice "educrm_backend/internal/leads/service"
	"educrm_backend/internal/notification"
	"educrm_backend/internal/registrations"
	"educrm_backend/internal/scheduler"
	"educrm_backend/platform/config"
	"educrm_backend/platform/db"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, blobs storage.BlobStore, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return blobs.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	taskClient, closeTaskClient := initTaskClient(cfg, log)
	if closeTaskClient != nil {
		defer closeTaskClient()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for file uploads (MinIO)
	blobs, err := storage.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, blobs, "student-documents", cfg.GetMinioBucketStudentDocuments())
	ensureBucket(ctx, log, blobs, "offer-letters", cfg.GetMinioBucketOfferLetters())
	log.Info(
		"storage service initialized",
		"studentDocumentsBucket", cfg.GetMinioBucketStudentDocuments(),
		"offerLettersBucket", cfg.GetMinioBucketOfferLetters(),
	)

	// Document checklist definitions for the counsellor/admission/loan gates
	required, err := requirements.Load()
	if err != nil {
		log.Error("failed to load document requirements", "error", err)
		panic("failed to load document requirements: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	auditor := audit.NewService(audit.NewRepository(pool), log)
	auditModule := audit.NewModule(auditor)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(pool, sender, log)
	notificationModule.RegisterHandlers(eventBus)

	identityModule := identity.NewModule(pool, auditor, cfg, val, log)
	leadsModule := leads.NewModule(pool, auditor, eventBus, taskClient, val, log)
	documentsModule := documents.NewModule(pool, blobs, required, auditor, cfg.GetMinioBucketStudentDocuments(), val, log)
	registrationsModule := registrations.NewModule(pool, documentsModule.Service(), blobs, auditor, eventBus, cfg.GetMinioBucketOfferLetters(), val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			identityModule,
			leadsModule,
			documentsModule,
			registrationsModule,
			auditModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initTaskClient builds the asynq enqueue client. Without Redis the API still
// serves requests; lead auto-assignment simply never fires, which the nil
// client absorbs.
func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (leadservice.AssignEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead auto-assignment disabled")
		return (*scheduler.Client)(nil), nil
	}

	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return (*scheduler.Client)(nil), nil
	}

	return taskClient, func() {
		_ = taskClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
