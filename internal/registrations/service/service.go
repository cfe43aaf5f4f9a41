// Package service implements the registration lifecycle engine: lead
// conversion, departmental ownership transitions, university applications,
// the loan state machine, and retention rules. Every mutating operation
// runs inside one transaction with the registration row locked.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"educrm_backend/internal/adapters/storage"
	"educrm_backend/internal/audit"
	documentsdomain "educrm_backend/internal/documents/domain"
	"educrm_backend/internal/documents/requirements"
	"educrm_backend/internal/events"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/logger"
)

// DocumentGate answers whether the required document set for a stage has
// been fully verified. The documents module provides it.
type DocumentGate interface {
	Completeness(ctx context.Context, ownerKind documentsdomain.OwnerKind, ownerID uuid.UUID, stage requirements.Stage) (documentsdomain.Completeness, error)
}

// Service orchestrates the registration lifecycle.
type Service struct {
	repo    repository.Repository
	gate    DocumentGate
	blobs   storage.BlobStore
	audit   audit.Recorder
	bus     events.Bus
	offers  string // offer letters bucket
	log     *logger.Logger
	now     func() time.Time
}

// New creates the registrations service.
func New(repo repository.Repository, gate DocumentGate, blobs storage.BlobStore, auditor audit.Recorder, bus events.Bus, offerBucket string, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		blobs:  blobs,
		audit:  auditor,
		bus:    bus,
		offers: offerBucket,
		log:    log,
		now:    time.Now,
	}
}

// Get returns one registration.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.RegistrationResponse, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.RegistrationResponse{}, err
	}
	return transport.ToRegistrationResponse(reg), nil
}

// List returns a filtered page of registrations.
func (s *Service) List(ctx context.Context, req transport.ListRegistrationsRequest) (transport.RegistrationListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		Search:         req.Search,
		IncludeDeleted: req.IncludeDeleted,
		SuccessOnly:    req.SuccessOnly,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}
	if req.Owner != "" {
		owner := domain.Owner(req.Owner)
		params.Owner = &owner
	}

	regs, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.RegistrationListResponse{}, err
	}

	items := make([]transport.RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		items = append(items, transport.ToRegistrationResponse(reg))
	}
	return transport.RegistrationListResponse{Items: items, Total: total, Page: page}, nil
}

// lockOwned loads the registration under lock and enforces the ownership
// predicate: the actor's department must match the current owner, with
// super admins and managers passing everywhere.
func (s *Service) lockOwned(ctx context.Context, tx pgx.Tx, actor identitydomain.Actor, id uuid.UUID) (domain.Registration, error) {
	reg, err := s.repo.LockRegistration(ctx, tx, id)
	if err != nil {
		return domain.Registration{}, err
	}
	if reg.DeletedAt != nil {
		return domain.Registration{}, apperr.NotFound("registration not found")
	}
	if err := requireOwner(actor, reg); err != nil {
		return domain.Registration{}, err
	}
	return reg, nil
}

func requireOwner(actor identitydomain.Actor, reg domain.Registration) error {
	if reg.Lifecycle.CurrentOwner == domain.OwnerDone {
		if actor.Capabilities.IsSuperAdmin() {
			return nil
		}
		return apperr.Precondition("registration workflow is already complete")
	}
	if !actor.Capabilities.CanOwn(identitydomain.Department(reg.Lifecycle.CurrentOwner)) {
		return apperr.OwnershipDenied("registration is owned by the " + string(reg.Lifecycle.CurrentOwner) + " department")
	}
	return nil
}

// lifecycleUpdateFrom snapshots the registration's writable lifecycle
// columns so callers mutate and write back atomically.
func lifecycleUpdateFrom(reg domain.Registration, by uuid.UUID, at time.Time) repository.LifecycleUpdate {
	return repository.LifecycleUpdate{
		RegistrationID:        reg.ID,
		CurrentOwner:          reg.Lifecycle.CurrentOwner,
		LoanRequired:          reg.Lifecycle.LoanRequired,
		AdmissionCompleted:    reg.Lifecycle.AdmissionCompleted,
		LoanCompleted:         reg.Lifecycle.LoanCompleted,
		CounsellorCompletedAt: reg.Lifecycle.CounsellorCompletedAt,
		AdmissionStatus:       reg.AdmissionStatus,
		CancelReason:          reg.CancelReason,
		TransitionBy:          by,
		TransitionAt:          at,
	}
}
