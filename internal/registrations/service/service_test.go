package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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

// fakeRepo keeps a single registration in memory and mirrors lifecycle
// writes onto it, which is enough to drive the service paths under test.
type fakeRepo struct {
	reg      domain.Registration
	regErr   error
	count    int64
	emailDup bool
	leadOK   bool

	installments []repository.InstallmentParams
	lifecycle    *repository.LifecycleUpdate
	softDeleted  bool
	restored     bool
	purged       bool
	created      *repository.CreateRegistrationParams

	loan       domain.LoanApplication
	loanUpdate *repository.UpdateLoanParams
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (f *fakeRepo) CountAll(context.Context, pgx.Tx) (int64, error) { return f.count, nil }

func (f *fakeRepo) StudentEmailExists(context.Context, pgx.Tx, string) (bool, error) {
	return f.emailDup, nil
}

func (f *fakeRepo) CreateTx(_ context.Context, _ pgx.Tx, params repository.CreateRegistrationParams) (domain.Registration, error) {
	f.created = &params
	f.reg = domain.Registration{
		ID:           uuid.New(),
		PublicID:     params.PublicID,
		LeadID:       params.LeadID,
		StudentName:  params.StudentName,
		StudentEmail: params.StudentEmail,
		StudentPhone: params.StudentPhone,
		Payment:      domain.Payment{TotalAmount: params.TotalAmount},
		Lifecycle: domain.Lifecycle{
			CurrentOwner:     domain.OwnerCounsellor,
			OriginCounsellor: params.OriginCounsellor,
			LoanRequired:     params.LoanRequired,
		},
		AdmissionStatus: domain.AdmissionInProgress,
		IsTestData:      params.IsTestData,
	}
	return f.reg, nil
}

func (f *fakeRepo) MarkLeadConvertedTx(context.Context, pgx.Tx, uuid.UUID, uuid.UUID) (bool, error) {
	return f.leadOK, nil
}

func (f *fakeRepo) GetByID(context.Context, uuid.UUID) (domain.Registration, error) {
	if f.regErr != nil {
		return domain.Registration{}, f.regErr
	}
	return f.reg, nil
}

func (f *fakeRepo) LockRegistration(context.Context, pgx.Tx, uuid.UUID) (domain.Registration, error) {
	if f.regErr != nil {
		return domain.Registration{}, f.regErr
	}
	return f.reg, nil
}

func (f *fakeRepo) UpdateLifecycleTx(_ context.Context, _ pgx.Tx, update repository.LifecycleUpdate) error {
	f.lifecycle = &update
	return nil
}

func (f *fakeRepo) List(context.Context, repository.ListParams) ([]domain.Registration, int, error) {
	return []domain.Registration{f.reg}, 1, nil
}

func (f *fakeRepo) SoftDelete(context.Context, uuid.UUID, time.Time) error {
	f.softDeleted = true
	return nil
}

func (f *fakeRepo) Restore(context.Context, uuid.UUID) error {
	f.restored = true
	return nil
}

func (f *fakeRepo) PurgeTx(context.Context, pgx.Tx, uuid.UUID) error {
	f.purged = true
	return nil
}

func (f *fakeRepo) InsertInstallmentTx(_ context.Context, _ pgx.Tx, params repository.InstallmentParams) error {
	f.installments = append(f.installments, params)
	return nil
}

func (f *fakeRepo) AddPaidAmountTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, delta int64) error {
	f.reg.Payment.PaidAmount += delta
	return nil
}

func (f *fakeRepo) ListInstallments(context.Context, uuid.UUID) ([]domain.Installment, error) {
	return nil, nil
}

func (f *fakeRepo) CreateApplication(context.Context, repository.CreateApplicationParams) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeRepo) GetApplication(context.Context, uuid.UUID) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeRepo) ListApplications(context.Context, uuid.UUID) ([]domain.Application, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateApplication(context.Context, repository.UpdateApplicationParams) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeRepo) SetApplicationStatus(context.Context, uuid.UUID, domain.ApplicationStatus, *string) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeRepo) SetOfferLetter(context.Context, uuid.UUID, string) (domain.Application, error) {
	return domain.Application{}, nil
}

func (f *fakeRepo) CreateLoan(context.Context, repository.CreateLoanParams) (domain.LoanApplication, error) {
	return domain.LoanApplication{}, nil
}

func (f *fakeRepo) GetLoan(context.Context, uuid.UUID) (domain.LoanApplication, error) {
	return f.loan, nil
}

func (f *fakeRepo) GetLoanByRegistration(context.Context, uuid.UUID) (domain.LoanApplication, error) {
	return f.loan, nil
}

func (f *fakeRepo) LockLoan(context.Context, pgx.Tx, uuid.UUID) (domain.LoanApplication, error) {
	return f.loan, nil
}

func (f *fakeRepo) UpdateLoanTx(_ context.Context, _ pgx.Tx, params repository.UpdateLoanParams) (domain.LoanApplication, error) {
	f.loanUpdate = &params
	return f.loan, nil
}

func (f *fakeRepo) SetLoanStatusTx(context.Context, pgx.Tx, uuid.UUID, domain.LoanStatus) error {
	return nil
}

func (f *fakeRepo) InsertLoanPaymentTx(context.Context, pgx.Tx, repository.LoanPaymentParams) error {
	return nil
}

func (f *fakeRepo) AddLoanPaidTx(context.Context, pgx.Tx, uuid.UUID, int64) error { return nil }

func (f *fakeRepo) ListLoanPayments(context.Context, uuid.UUID) ([]domain.LoanPayment, error) {
	return nil, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

type fakeGate struct {
	completeness documentsdomain.Completeness
	stage        requirements.Stage
}

func (f *fakeGate) Completeness(_ context.Context, _ documentsdomain.OwnerKind, _ uuid.UUID, stage requirements.Stage) (documentsdomain.Completeness, error) {
	f.stage = stage
	return f.completeness, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, uuid.UUID, string, string, uuid.UUID, map[string]any) {}
func (noopRecorder) RecordTx(context.Context, pgx.Tx, uuid.UUID, string, string, uuid.UUID, map[string]any) {
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo, gate *fakeGate, bus *captureBus) *Service {
	if gate == nil {
		gate = &fakeGate{completeness: documentsdomain.Completeness{Complete: true, Progress: 100}}
	}
	if bus == nil {
		bus = &captureBus{}
	}
	return New(repo, gate, nil, noopRecorder{}, bus, "offer-letters", logger.New("test"))
}

func counsellorReg() domain.Registration {
	return domain.Registration{
		ID:           uuid.New(),
		PublicID:     "STU-2025-1000",
		StudentName:  "Asha Verma",
		StudentEmail: "asha@example.com",
		Payment:      domain.Payment{TotalAmount: 100000},
		Lifecycle: domain.Lifecycle{
			CurrentOwner:     domain.OwnerCounsellor,
			OriginCounsellor: uuid.New(),
		},
		AdmissionStatus: domain.AdmissionInProgress,
	}
}

func actorWithRole(role identitydomain.Role) identitydomain.Actor {
	return identitydomain.NewActor(uuid.New(), string(role))
}

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != kind {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func TestConvertLeadRequiresCounsellorCapability(t *testing.T) {
	svc := newTestService(&fakeRepo{leadOK: true}, nil, nil)

	_, err := svc.ConvertLead(context.Background(), actorWithRole(identitydomain.RoleAdmission), transport.ConvertLeadRequest{
		LeadID: uuid.New(), StudentName: "Asha", StudentEmail: "a@b.com", TotalAmount: 1000,
	})
	expectKind(t, err, apperr.KindForbidden)
}

func TestConvertLeadHappyPath(t *testing.T) {
	repo := &fakeRepo{leadOK: true, count: 41}
	bus := &captureBus{}
	svc := newTestService(repo, nil, bus)
	actor := actorWithRole(identitydomain.RoleCounsellor)

	resp, err := svc.ConvertLead(context.Background(), actor, transport.ConvertLeadRequest{
		LeadID:       uuid.New(),
		StudentName:  "Asha Verma",
		StudentEmail: "  Asha@Example.COM ",
		StudentPhone: "+919876543210",
		TotalAmount:  250000,
		LoanRequired: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.created == nil {
		t.Fatal("expected registration to be created")
	}
	if repo.created.StudentEmail != "asha@example.com" {
		t.Fatalf("email not normalized: %q", repo.created.StudentEmail)
	}
	if repo.created.OriginCounsellor != actor.ID {
		t.Fatal("origin counsellor should be the converting actor")
	}
	wantID := domain.NewPublicID(time.Now().UTC().Year(), 41)
	if resp.PublicID != wantID {
		t.Fatalf("public id = %q, want %q", resp.PublicID, wantID)
	}
	if resp.CurrentOwner != string(domain.OwnerCounsellor) || !resp.LoanRequired {
		t.Fatalf("response = %+v", resp)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if _, ok := bus.published[0].(events.RegistrationCreated); !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
}

func TestConvertLeadDuplicateEmail(t *testing.T) {
	svc := newTestService(&fakeRepo{leadOK: true, emailDup: true}, nil, nil)

	_, err := svc.ConvertLead(context.Background(), actorWithRole(identitydomain.RoleCounsellor), transport.ConvertLeadRequest{
		LeadID: uuid.New(), StudentName: "Asha", StudentEmail: "a@b.com", TotalAmount: 1000,
	})
	expectKind(t, err, apperr.KindConflict)
}

func TestConvertLeadNotReadyForConversion(t *testing.T) {
	svc := newTestService(&fakeRepo{leadOK: false}, nil, nil)

	_, err := svc.ConvertLead(context.Background(), actorWithRole(identitydomain.RoleCounsellor), transport.ConvertLeadRequest{
		LeadID: uuid.New(), StudentName: "Asha", StudentEmail: "a@b.com", TotalAmount: 1000,
	})
	expectKind(t, err, apperr.KindPrecondition)
}

func TestCompleteCounsellorTaskBlockedByDocumentGate(t *testing.T) {
	repo := &fakeRepo{reg: counsellorReg()}
	gate := &fakeGate{completeness: documentsdomain.Completeness{Missing: []string{"passport", "ielts"}, Progress: 0}}
	svc := newTestService(repo, gate, nil)

	_, err := svc.CompleteCounsellorTask(context.Background(), actorWithRole(identitydomain.RoleCounsellor), repo.reg.ID)
	expectKind(t, err, apperr.KindPrecondition)
	if gate.stage != requirements.StageCounsellor {
		t.Fatalf("gate consulted for stage %q", gate.stage)
	}

	var appErr *apperr.Error
	errors.As(err, &appErr)
	details, ok := appErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %#v", appErr.Details)
	}
	if missing, ok := details["missing"].([]string); !ok || len(missing) != 2 {
		t.Fatalf("missing = %#v", details["missing"])
	}
}

func TestCompleteCounsellorTaskHandsOverToAdmission(t *testing.T) {
	repo := &fakeRepo{reg: counsellorReg()}
	bus := &captureBus{}
	svc := newTestService(repo, nil, bus)

	resp, err := svc.CompleteCounsellorTask(context.Background(), actorWithRole(identitydomain.RoleCounsellor), repo.reg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CurrentOwner != string(domain.OwnerAdmission) {
		t.Fatalf("owner = %q", resp.CurrentOwner)
	}
	if resp.CounsellorCompletedAt == nil {
		t.Fatal("counsellor completion timestamp not set")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	transition, ok := bus.published[0].(events.WorkflowTransitioned)
	if !ok || transition.FromOwner != "counsellor" || transition.ToOwner != "admission" {
		t.Fatalf("event = %+v", bus.published[0])
	}
}

func TestCompleteCounsellorTaskDeniedForOtherDepartment(t *testing.T) {
	repo := &fakeRepo{reg: counsellorReg()}
	gate := &fakeGate{completeness: documentsdomain.Completeness{Missing: []string{"passport"}}}
	svc := newTestService(repo, gate, nil)

	_, err := svc.CompleteCounsellorTask(context.Background(), actorWithRole(identitydomain.RoleLoanOfficer), repo.reg.ID)
	expectKind(t, err, apperr.KindForbidden)
	if gate.stage != "" {
		t.Fatal("document gate must not be consulted for a non-owner")
	}
}

func TestMarkAdmissionCompletedRoutesToLoanWhenRequired(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerAdmission
	reg.Lifecycle.LoanRequired = true
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	resp, err := svc.MarkAdmissionCompleted(context.Background(), actorWithRole(identitydomain.RoleAdmission), reg.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CurrentOwner != string(domain.OwnerLoan) || !resp.AdmissionCompleted {
		t.Fatalf("response = %+v", resp)
	}
	if resp.AdmissionStatus != string(domain.AdmissionInProgress) {
		t.Fatalf("admission status = %q, workflow is not finished yet", resp.AdmissionStatus)
	}
}

func TestMarkAdmissionCompletedFinishesWithoutLoan(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerAdmission
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	resp, err := svc.MarkAdmissionCompleted(context.Background(), actorWithRole(identitydomain.RoleAdmission), reg.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CurrentOwner != string(domain.OwnerDone) || resp.AdmissionStatus != string(domain.AdmissionSuccess) {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.InSuccessRegistry {
		t.Fatal("finished registration should be in the success registry")
	}
}

func TestMarkLoanCompletedRequiresOpenLoanStage(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerAdmission
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	_, err := svc.MarkLoanCompleted(context.Background(), actorWithRole(identitydomain.RoleAdmission), reg.ID)
	expectKind(t, err, apperr.KindPrecondition)
}

func TestSetLoanRequiredOffAfterAdmissionFinishesWorkflow(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerLoan
	reg.Lifecycle.LoanRequired = true
	reg.Lifecycle.AdmissionCompleted = true
	repo := &fakeRepo{reg: reg}
	bus := &captureBus{}
	svc := newTestService(repo, nil, bus)

	resp, err := svc.SetLoanRequired(context.Background(), actorWithRole(identitydomain.RoleLoanOfficer), reg.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CurrentOwner != string(domain.OwnerDone) || resp.AdmissionStatus != string(domain.AdmissionSuccess) {
		t.Fatalf("response = %+v", resp)
	}
	if len(bus.published) != 1 {
		t.Fatal("ownership change should publish a transition")
	}
}

func TestOperationsOnDoneRegistrationNeedSuperAdmin(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerDone
	reg.Lifecycle.AdmissionCompleted = true
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	_, err := svc.RecordInstallment(context.Background(), actorWithRole(identitydomain.RoleManager), reg.ID, transport.RecordInstallmentRequest{Amount: 100})
	expectKind(t, err, apperr.KindPrecondition)

	_, err = svc.RecordInstallment(context.Background(), actorWithRole(identitydomain.RoleSuperAdmin), reg.ID, transport.RecordInstallmentRequest{Amount: 100})
	if err != nil {
		t.Fatalf("super admin should pass: %v", err)
	}
}

func TestRecordInstallmentCannotExceedTotal(t *testing.T) {
	reg := counsellorReg()
	reg.Payment = domain.Payment{TotalAmount: 1000, PaidAmount: 900}
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)
	actor := actorWithRole(identitydomain.RoleCounsellor)

	_, err := svc.RecordInstallment(context.Background(), actor, reg.ID, transport.RecordInstallmentRequest{Amount: 200})
	expectKind(t, err, apperr.KindPrecondition)

	resp, err := svc.RecordInstallment(context.Background(), actor, reg.ID, transport.RecordInstallmentRequest{Amount: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PaidAmount != 1000 {
		t.Fatalf("paid = %d, want 1000", resp.PaidAmount)
	}
	if len(repo.installments) != 1 || repo.installments[0].Amount != 100 {
		t.Fatalf("ledger = %+v", repo.installments)
	}
}

func TestSoftDeleteProtectsSuccessRegistry(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerDone
	reg.Lifecycle.AdmissionCompleted = true
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	err := svc.SoftDelete(context.Background(), actorWithRole(identitydomain.RoleManager), reg.ID)
	expectKind(t, err, apperr.KindProtected)
	if repo.softDeleted {
		t.Fatal("record must not be deleted")
	}

	if err := svc.SoftDelete(context.Background(), actorWithRole(identitydomain.RoleSuperAdmin), reg.ID); err != nil {
		t.Fatalf("super admin should delete: %v", err)
	}
	if !repo.softDeleted {
		t.Fatal("expected soft delete")
	}
}

func TestSoftDeleteAllowsTestDataInSuccessRegistry(t *testing.T) {
	reg := counsellorReg()
	reg.Lifecycle.AdmissionCompleted = true
	reg.IsTestData = true
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	if err := svc.SoftDelete(context.Background(), actorWithRole(identitydomain.RoleCounsellor), reg.ID); err != nil {
		t.Fatalf("test data should be deletable: %v", err)
	}
}

func TestPurgeRules(t *testing.T) {
	reg := counsellorReg()
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	err := svc.Purge(context.Background(), actorWithRole(identitydomain.RoleManager), reg.ID)
	expectKind(t, err, apperr.KindForbidden)

	err = svc.Purge(context.Background(), actorWithRole(identitydomain.RoleSuperAdmin), reg.ID)
	expectKind(t, err, apperr.KindProtected)
	if repo.purged {
		t.Fatal("real record must not be purged")
	}

	repo.reg.IsTestData = true
	if err := svc.Purge(context.Background(), actorWithRole(identitydomain.RoleSuperAdmin), reg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.purged {
		t.Fatal("expected purge")
	}
}

func TestCancelIsIdempotentConflict(t *testing.T) {
	reg := counsellorReg()
	reg.AdmissionStatus = domain.AdmissionCancelled
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	_, err := svc.Cancel(context.Background(), actorWithRole(identitydomain.RoleCounsellor), reg.ID, "visa refused")
	expectKind(t, err, apperr.KindConflict)
}

func TestCancelRecordsReasonAndPublishes(t *testing.T) {
	reg := counsellorReg()
	repo := &fakeRepo{reg: reg}
	bus := &captureBus{}
	svc := newTestService(repo, nil, bus)

	resp, err := svc.Cancel(context.Background(), actorWithRole(identitydomain.RoleCounsellor), reg.ID, "visa refused")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AdmissionStatus != string(domain.AdmissionCancelled) || resp.CancelReason == nil || *resp.CancelReason != "visa refused" {
		t.Fatalf("response = %+v", resp)
	}
	cancelled, ok := bus.published[0].(events.RegistrationCancelled)
	if !ok || cancelled.Reason != "visa refused" {
		t.Fatalf("event = %+v", bus.published[0])
	}
}

func loanStageRepo(status domain.LoanStatus) *fakeRepo {
	reg := counsellorReg()
	reg.Lifecycle.CurrentOwner = domain.OwnerLoan
	reg.Lifecycle.LoanRequired = true
	reg.Lifecycle.AdmissionCompleted = true
	sanctioned := int64(450000)
	return &fakeRepo{
		reg: reg,
		loan: domain.LoanApplication{
			ID:               uuid.New(),
			RegistrationID:   reg.ID,
			BankName:         "HDFC Credila",
			AppliedAmount:    500000,
			SanctionedAmount: &sanctioned,
			CoApplicant:      domain.CoApplicant{Name: "Ravi Verma", Relation: "father"},
			Status:           status,
		},
	}
}

func TestUpdateLoanKeepsCoApplicantOnceApproved(t *testing.T) {
	repo := loanStageRepo(domain.LoanApproved)
	svc := newTestService(repo, nil, nil)

	_, err := svc.UpdateLoan(context.Background(), actorWithRole(identitydomain.RoleLoanOfficer), repo.loan.ID, transport.UpdateLoanRequest{
		CoApplicant: &transport.CoApplicantRequest{},
	})
	expectKind(t, err, apperr.KindPrecondition)
	if repo.loanUpdate != nil {
		t.Fatalf("loan was written: %+v", repo.loanUpdate)
	}
}

func TestUpdateLoanReplacesCoApplicantBeforeApproval(t *testing.T) {
	repo := loanStageRepo(domain.LoanApplied)
	svc := newTestService(repo, nil, nil)

	_, err := svc.UpdateLoan(context.Background(), actorWithRole(identitydomain.RoleLoanOfficer), repo.loan.ID, transport.UpdateLoanRequest{
		CoApplicant: &transport.CoApplicantRequest{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.loanUpdate == nil || repo.loanUpdate.CoApplicant == nil {
		t.Fatal("expected co-applicant write")
	}
	if !repo.loanUpdate.CoApplicant.IsEmpty() {
		t.Fatalf("co-applicant = %+v", repo.loanUpdate.CoApplicant)
	}
}

func TestUpdateLoanChecksSanctionedAgainstStoredApplied(t *testing.T) {
	repo := loanStageRepo(domain.LoanApplied)
	svc := newTestService(repo, nil, nil)
	actor := actorWithRole(identitydomain.RoleLoanOfficer)

	over := int64(600000)
	_, err := svc.UpdateLoan(context.Background(), actor, repo.loan.ID, transport.UpdateLoanRequest{
		SanctionedAmount: &over,
	})
	expectKind(t, err, apperr.KindPrecondition)
	if repo.loanUpdate != nil {
		t.Fatal("loan must not be written when sanctioned exceeds applied")
	}

	lower := int64(300000)
	_, err = svc.UpdateLoan(context.Background(), actor, repo.loan.ID, transport.UpdateLoanRequest{
		AppliedAmount: &lower,
	})
	expectKind(t, err, apperr.KindPrecondition)
	if repo.loanUpdate != nil {
		t.Fatal("loan must not be written when applied drops below stored sanctioned")
	}
}

func TestUpdateLoanDeniedForOtherDepartment(t *testing.T) {
	repo := loanStageRepo(domain.LoanDraft)
	svc := newTestService(repo, nil, nil)

	name := "Axis Bank"
	_, err := svc.UpdateLoan(context.Background(), actorWithRole(identitydomain.RoleCounsellor), repo.loan.ID, transport.UpdateLoanRequest{
		BankName: &name,
	})
	expectKind(t, err, apperr.KindForbidden)
	if repo.loanUpdate != nil {
		t.Fatal("loan must not be written for a non-owner")
	}
}

func TestSoftDeletedRegistrationIsInvisible(t *testing.T) {
	reg := counsellorReg()
	now := time.Now()
	reg.DeletedAt = &now
	repo := &fakeRepo{reg: reg}
	svc := newTestService(repo, nil, nil)

	_, err := svc.RecordInstallment(context.Background(), actorWithRole(identitydomain.RoleCounsellor), reg.ID, transport.RecordInstallmentRequest{Amount: 1})
	expectKind(t, err, apperr.KindNotFound)
}
