package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"educrm_backend/internal/audit"
	identitydomain "educrm_backend/internal/identity/domain"
	"educrm_backend/internal/registrations/domain"
	"educrm_backend/internal/registrations/repository"
	"educrm_backend/internal/registrations/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/sanitize"
)

// CreateApplication adds one (university, course) application to a
// registration owned by the actor's department.
func (s *Service) CreateApplication(ctx context.Context, actor identitydomain.Actor, registrationID uuid.UUID, req transport.CreateApplicationRequest) (transport.ApplicationResponse, error) {
	reg, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}
	if err := requireOwner(actor, reg); err != nil {
		return transport.ApplicationResponse{}, err
	}

	app, err := s.repo.CreateApplication(ctx, repository.CreateApplicationParams{
		RegistrationID: registrationID,
		University:     sanitize.Text(req.University),
		Course:         sanitize.Text(req.Course),
		IntakeTerm:     sanitize.Text(req.IntakeTerm),
		Country:        sanitize.Text(req.Country),
	})
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionApplicationCreated, audit.SubjectApplication, app.ID, map[string]any{
		"registration_id": registrationID.String(),
		"university":      app.University,
		"course":          app.Course,
	})
	return transport.ToApplicationResponse(app), nil
}

// ListApplications returns a registration's applications.
func (s *Service) ListApplications(ctx context.Context, registrationID uuid.UUID) (transport.ApplicationListResponse, error) {
	apps, err := s.repo.ListApplications(ctx, registrationID)
	if err != nil {
		return transport.ApplicationListResponse{}, err
	}
	items := make([]transport.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, transport.ToApplicationResponse(app))
	}
	return transport.ApplicationListResponse{Items: items}, nil
}

// UpdateApplication patches academic metadata on a draft or submitted
// application.
func (s *Service) UpdateApplication(ctx context.Context, actor identitydomain.Actor, applicationID uuid.UUID, req transport.UpdateApplicationRequest) (transport.ApplicationResponse, error) {
	app, _, err := s.getApplicationOwned(ctx, actor, applicationID)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}
	if app.Status == domain.ApplicationApproved || app.Status == domain.ApplicationWithdrawn {
		return transport.ApplicationResponse{}, apperr.Precondition("application can no longer be edited")
	}

	updated, err := s.repo.UpdateApplication(ctx, repository.UpdateApplicationParams{
		ID:         applicationID,
		University: sanitizePtr(req.University),
		Course:     sanitizePtr(req.Course),
		IntakeTerm: sanitizePtr(req.IntakeTerm),
		Country:    sanitizePtr(req.Country),
	})
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionApplicationUpdated, audit.SubjectApplication, applicationID, nil)
	return transport.ToApplicationResponse(updated), nil
}

// SetApplicationStatus moves an application through its states. A reason
// is mandatory for rejected and withdrawn.
func (s *Service) SetApplicationStatus(ctx context.Context, actor identitydomain.Actor, applicationID uuid.UUID, req transport.SetApplicationStatusRequest) (transport.ApplicationResponse, error) {
	app, _, err := s.getApplicationOwned(ctx, actor, applicationID)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	status := domain.ApplicationStatus(req.Status)
	reason := sanitize.Text(req.Reason)
	if err := domain.ValidateApplicationStatus(status, reason); err != nil {
		return transport.ApplicationResponse{}, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	updated, err := s.repo.SetApplicationStatus(ctx, applicationID, status, reasonPtr)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionApplicationStatusChanged, audit.SubjectApplication, applicationID, map[string]any{
		"from":   string(app.Status),
		"to":     string(status),
		"reason": reason,
	})
	return transport.ToApplicationResponse(updated), nil
}

// UploadOfferLetter stores the offer letter blob and records its path on
// the application. A replacement removes the previous blob best-effort.
func (s *Service) UploadOfferLetter(ctx context.Context, actor identitydomain.Actor, applicationID uuid.UUID, fileName, contentType string, reader io.Reader, size int64) (transport.ApplicationResponse, error) {
	app, reg, err := s.getApplicationOwned(ctx, actor, applicationID)
	if err != nil {
		return transport.ApplicationResponse{}, err
	}

	if err := s.blobs.ValidateContentType(contentType); err != nil {
		return transport.ApplicationResponse{}, apperr.Validation(err.Error())
	}
	if err := s.blobs.ValidateFileSize(size); err != nil {
		return transport.ApplicationResponse{}, apperr.Validation(err.Error())
	}

	folder := "offer-letters/" + reg.PublicID
	path, err := s.blobs.UploadFile(ctx, s.offers, folder, fileName, contentType, reader, size)
	if err != nil {
		s.log.Error("offer letter upload failed", "application_id", applicationID, "error", err)
		return transport.ApplicationResponse{}, apperr.Unavailable("document storage is unavailable")
	}

	updated, err := s.repo.SetOfferLetter(ctx, applicationID, path)
	if err != nil {
		if delErr := s.blobs.DeleteObject(ctx, s.offers, path); delErr != nil {
			s.log.Error("orphaned offer letter cleanup failed", "path", path, "error", delErr)
		}
		return transport.ApplicationResponse{}, err
	}
	if app.OfferLetterPath != nil && *app.OfferLetterPath != path {
		if delErr := s.blobs.DeleteObject(ctx, s.offers, *app.OfferLetterPath); delErr != nil {
			s.log.Warn("stale offer letter cleanup failed", "path", *app.OfferLetterPath, "error", delErr)
		}
	}

	s.audit.Record(ctx, actor.ID, audit.ActionOfferLetterUploaded, audit.SubjectApplication, applicationID, map[string]any{
		"file_name": fileName,
	})
	return transport.ToApplicationResponse(updated), nil
}

// OfferLetterURL returns a presigned download URL for the application's
// offer letter.
func (s *Service) OfferLetterURL(ctx context.Context, applicationID uuid.UUID) (string, error) {
	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return "", err
	}
	if app.OfferLetterPath == nil {
		return "", apperr.NotFound("no offer letter on this application")
	}
	url, err := s.blobs.GenerateDownloadURL(ctx, s.offers, *app.OfferLetterPath)
	if err != nil {
		s.log.Error("offer letter presign failed", "application_id", applicationID, "error", err)
		return "", apperr.Unavailable("document storage is unavailable")
	}
	return url.URL, nil
}

func (s *Service) getApplicationOwned(ctx context.Context, actor identitydomain.Actor, applicationID uuid.UUID) (domain.Application, domain.Registration, error) {
	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return domain.Application{}, domain.Registration{}, err
	}
	reg, err := s.repo.GetByID(ctx, app.RegistrationID)
	if err != nil {
		return domain.Application{}, domain.Registration{}, err
	}
	if err := requireOwner(actor, reg); err != nil {
		return domain.Application{}, domain.Registration{}, err
	}
	return app, reg, nil
}

func sanitizePtr(value *string) *string {
	if value == nil {
		return nil
	}
	clean := sanitize.Text(strings.TrimSpace(*value))
	return &clean
}
