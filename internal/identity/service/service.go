// Package service implements the identity business logic: employee login
// and the employee directory used by the assignment engine.
package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"educrm_backend/internal/audit"
	"educrm_backend/internal/identity/domain"
	"educrm_backend/internal/identity/repository"
	"educrm_backend/internal/identity/transport"
	"educrm_backend/platform/apperr"
	"educrm_backend/platform/config"
	"educrm_backend/platform/logger"
	"educrm_backend/platform/phone"
)

const invalidCredentialsMessage = "invalid email or password"

// publicIDAttempts bounds the EMP id collision retry loop.
const publicIDAttempts = 5

// Service provides login and directory operations.
type Service struct {
	repo  repository.Repository
	audit audit.Recorder
	cfg   config.AuthServiceConfig
	log   *logger.Logger
	rng   *rand.Rand
	now   func() time.Time
}

// New creates a new identity service.
func New(repo repository.Repository, auditor audit.Recorder, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		audit: auditor,
		cfg:   cfg,
		log:   log,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// Login verifies credentials and issues a signed access token. Lookup misses
// and password mismatches produce the same error so login cannot be used to
// probe the directory.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	creds, err := s.repo.GetCredentialsByEmail(ctx, req.Email)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return transport.LoginResponse{}, apperr.Unauthorized(invalidCredentialsMessage)
		}
		return transport.LoginResponse{}, err
	}

	if creds.Employee.Status != domain.StatusActive {
		return transport.LoginResponse{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		s.log.AuthEvent("login", req.Email, false, "password mismatch")
		return transport.LoginResponse{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	token, expiresIn, err := s.issueAccessToken(creds.Employee)
	if err != nil {
		return transport.LoginResponse{}, apperr.Internal("could not issue token")
	}

	s.log.AuthEvent("login", req.Email, true, "")
	return transport.LoginResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		Employee:    transport.ToEmployeeResponse(creds.Employee),
	}, nil
}

// CreateEmployee adds a directory entry. Only directory managers may call
// this; the handler enforces that through the actor's capabilities.
func (s *Service) CreateEmployee(ctx context.Context, actor domain.Actor, req transport.CreateEmployeeRequest) (transport.EmployeeResponse, error) {
	if !actor.Capabilities.CanManageEmployees() {
		return transport.EmployeeResponse{}, apperr.Forbidden("not allowed to manage employees")
	}

	role := domain.NormalizeRole(req.Role)
	if !isCreatableRole(role) {
		return transport.EmployeeResponse{}, apperr.Validation("unknown role").WithDetails(map[string]string{"role": req.Role})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return transport.EmployeeResponse{}, apperr.Internal("could not hash password")
	}

	publicID, err := s.nextPublicID(ctx)
	if err != nil {
		return transport.EmployeeResponse{}, err
	}

	emp, err := s.repo.Create(ctx, repository.CreateParams{
		PublicID:     publicID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        phone.NormalizeE164(req.Phone),
		PasswordHash: string(hash),
		Role:         role,
		Department:   domain.DepartmentForRole(role),
	})
	if err != nil {
		return transport.EmployeeResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionEmployeeCreated, audit.SubjectEmployee, emp.ID, map[string]any{
		"publicId": emp.PublicID,
		"role":     string(emp.Role),
	})
	return transport.ToEmployeeResponse(emp), nil
}

// GetEmployee retrieves one directory entry.
func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (transport.EmployeeResponse, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.EmployeeResponse{}, err
	}
	return transport.ToEmployeeResponse(emp), nil
}

// ListEmployees returns the full directory.
func (s *Service) ListEmployees(ctx context.Context) (transport.EmployeeListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.EmployeeListResponse{}, err
	}

	responses := make([]transport.EmployeeResponse, 0, len(items))
	for _, emp := range items {
		responses = append(responses, transport.ToEmployeeResponse(emp))
	}
	return transport.EmployeeListResponse{Items: responses, Total: len(responses)}, nil
}

// UpdateEmployee patches mutable directory fields. Changing the role also
// moves the employee to the role's department.
func (s *Service) UpdateEmployee(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateEmployeeRequest) (transport.EmployeeResponse, error) {
	if !actor.Capabilities.CanManageEmployees() {
		return transport.EmployeeResponse{}, apperr.Forbidden("not allowed to manage employees")
	}

	params := repository.UpdateParams{ID: id, Name: req.Name}

	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	if req.Role != nil {
		role := domain.NormalizeRole(*req.Role)
		if !isCreatableRole(role) {
			return transport.EmployeeResponse{}, apperr.Validation("unknown role").WithDetails(map[string]string{"role": *req.Role})
		}
		params.Role = &role
	}

	emp, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.EmployeeResponse{}, err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionEmployeeUpdated, audit.SubjectEmployee, emp.ID, nil)
	return transport.ToEmployeeResponse(emp), nil
}

// SetEmployeeStatus activates or deactivates an account. Deactivated
// employees keep their directory entry and assignment history but stop
// receiving new leads and cannot log in.
func (s *Service) SetEmployeeStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.EmployeeStatus) error {
	if !actor.Capabilities.CanManageEmployees() {
		return apperr.Forbidden("not allowed to manage employees")
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.ActionEmployeeStatusChanged, audit.SubjectEmployee, id, map[string]any{
		"status": string(status),
	})
	return nil
}

func (s *Service) issueAccessToken(emp domain.Employee) (string, int64, error) {
	ttl := s.cfg.GetAccessTokenTTL()
	now := s.now().UTC()

	claims := jwt.MapClaims{
		"sub":        emp.ID.String(),
		"role":       string(emp.Role),
		"department": string(emp.Department),
		"type":       "access",
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(ttl.Seconds()), nil
}

func (s *Service) nextPublicID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < publicIDAttempts; attempt++ {
		candidate := domain.NewEmployeePublicID(s.rng)
		exists, err := s.repo.PublicIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperr.Internal("could not allocate employee public id")
}

func isCreatableRole(role domain.Role) bool {
	switch role {
	case domain.RoleCounsellor, domain.RoleWFH, domain.RoleAdmission, domain.RoleLoanOfficer, domain.RoleManager:
		return true
	default:
		return false
	}
}
