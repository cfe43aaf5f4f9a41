package domain

import (
	"errors"
	"testing"

	"educrm_backend/platform/apperr"
)

func TestValidateLoanTransitionPartialOrder(t *testing.T) {
	coApplicant := CoApplicant{Name: "Ramesh Kumar", Relation: "father"}

	cases := []struct {
		name    string
		from    LoanStatus
		to      LoanStatus
		co      CoApplicant
		allowed bool
	}{
		{"draft to applied", LoanDraft, LoanApplied, CoApplicant{}, true},
		{"applied to approved with co-applicant", LoanApplied, LoanApproved, coApplicant, true},
		{"applied to rejected", LoanApplied, LoanRejected, CoApplicant{}, true},
		{"approved to disbursed", LoanApproved, LoanDisbursed, coApplicant, true},
		{"draft cannot jump to approved", LoanDraft, LoanApproved, coApplicant, false},
		{"draft cannot jump to disbursed", LoanDraft, LoanDisbursed, coApplicant, false},
		{"rejected is terminal", LoanRejected, LoanApplied, CoApplicant{}, false},
		{"disbursed is terminal", LoanDisbursed, LoanApproved, coApplicant, false},
		{"no backwards moves", LoanApproved, LoanApplied, coApplicant, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loan := LoanApplication{Status: tc.from, CoApplicant: tc.co}
			err := ValidateLoanTransition(loan, tc.to)
			if tc.allowed && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.allowed && err == nil {
				t.Fatalf("expected %s -> %s to be refused", tc.from, tc.to)
			}
		})
	}
}

func TestValidateLoanTransitionRequiresCoApplicantForApproval(t *testing.T) {
	loan := LoanApplication{Status: LoanApplied}

	err := ValidateLoanTransition(loan, LoanApproved)
	if err == nil {
		t.Fatal("expected approval without co-applicant to be refused")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindPrecondition {
		t.Fatalf("unexpected error kind: %v", err)
	}

	// Rejection needs no co-applicant.
	if err := ValidateLoanTransition(loan, LoanRejected); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLoanAmounts(t *testing.T) {
	sanctionedOK := int64(400000)
	sanctionedHigh := int64(600000)

	if err := ValidateLoanAmounts(500000, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateLoanAmounts(500000, &sanctionedOK); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateLoanAmounts(0, nil); err == nil {
		t.Fatal("expected zero applied amount to be refused")
	}
	if err := ValidateLoanAmounts(500000, &sanctionedHigh); err == nil {
		t.Fatal("expected sanctioned > applied to be refused")
	}
}

func TestValidateApplicationStatusReasonRules(t *testing.T) {
	for _, status := range []ApplicationStatus{ApplicationDraft, ApplicationSubmitted, ApplicationApproved} {
		if err := ValidateApplicationStatus(status, ""); err != nil {
			t.Fatalf("%s: unexpected error: %v", status, err)
		}
	}

	for _, status := range []ApplicationStatus{ApplicationRejected, ApplicationWithdrawn} {
		if err := ValidateApplicationStatus(status, ""); err == nil {
			t.Fatalf("%s: expected missing reason to be refused", status)
		}
		if err := ValidateApplicationStatus(status, "quota full"); err != nil {
			t.Fatalf("%s: unexpected error: %v", status, err)
		}
	}

	if err := ValidateApplicationStatus("archived", ""); err == nil {
		t.Fatal("expected unknown status to be refused")
	}
}
