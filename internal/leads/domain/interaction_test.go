package domain

import (
	"testing"
	"time"
)

func TestPlanInteractionConnectedAdvancesFreshLead(t *testing.T) {
	for _, current := range []Status{StatusEnquiryReceived, StatusAssigned} {
		effect, err := PlanInteraction(current, OutcomeConnected, NextStepNone, InteractionPayload{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", current, err)
		}
		if !effect.StatusChanged || effect.NewStatus != StatusContacted {
			t.Fatalf("%s: effect = %+v", current, effect)
		}
	}
}

func TestPlanInteractionMissedCallOnlyAppendsLog(t *testing.T) {
	effect, err := PlanInteraction(StatusAssigned, "no_answer", NextStepNone, InteractionPayload{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if effect.StatusChanged {
		t.Fatalf("missed call should not change status, got %+v", effect)
	}
}

func TestPlanInteractionConnectedDoesNotRegressContactedLead(t *testing.T) {
	effect, err := PlanInteraction(StatusFollowUp, OutcomeConnected, NextStepNone, InteractionPayload{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if effect.StatusChanged {
		t.Fatalf("connected call on follow_up lead should not change status, got %+v", effect)
	}
}

func TestPlanInteractionFollowUpRequiresDate(t *testing.T) {
	_, err := PlanInteraction(StatusContacted, OutcomeConnected, NextStepFollowUp, InteractionPayload{})
	if err == nil {
		t.Fatal("expected missing follow-up date to be refused")
	}

	due := time.Now().Add(24 * time.Hour)
	effect, err := PlanInteraction(StatusContacted, OutcomeConnected, NextStepFollowUp, InteractionPayload{FollowUpAt: &due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !effect.ScheduleFollowUp || effect.NewStatus != StatusFollowUp {
		t.Fatalf("effect = %+v", effect)
	}
	if effect.ResolvePendingAs != FollowUpCompleted {
		t.Fatalf("rescheduling should complete the previous follow-up, got %q", effect.ResolvePendingAs)
	}
}

func TestPlanInteractionRejectRequiresReason(t *testing.T) {
	_, err := PlanInteraction(StatusContacted, OutcomeConnected, NextStepReject, InteractionPayload{})
	if err == nil {
		t.Fatal("expected missing rejection reason to be refused")
	}

	effect, err := PlanInteraction(StatusContacted, OutcomeConnected, NextStepReject, InteractionPayload{RejectReason: "not interested"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !effect.Reject || !effect.ClearAssignment || effect.NewStatus != StatusRejected {
		t.Fatalf("effect = %+v", effect)
	}
	if effect.ResolvePendingAs != FollowUpCancelled {
		t.Fatalf("rejection should cancel pending follow-up, got %q", effect.ResolvePendingAs)
	}
}

func TestPlanInteractionRegisterLocksLeadForConversion(t *testing.T) {
	effect, err := PlanInteraction(StatusFollowUp, OutcomeConnected, NextStepRegister, InteractionPayload{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if effect.NewStatus != StatusConvertingToReg || !effect.StatusChanged {
		t.Fatalf("effect = %+v", effect)
	}
}

func TestPlanInteractionConvertedLeadIsTerminal(t *testing.T) {
	_, err := PlanInteraction(StatusConverted, OutcomeConnected, NextStepNone, InteractionPayload{})
	if err == nil {
		t.Fatal("expected interaction on converted lead to be refused")
	}
}

func TestPlanInteractionUnknownStepRefused(t *testing.T) {
	_, err := PlanInteraction(StatusContacted, OutcomeConnected, "escalate", InteractionPayload{})
	if err == nil {
		t.Fatal("expected unknown next step to be refused")
	}
}
