package domain

import (
	"strings"
	"time"

	"educrm_backend/platform/apperr"
)

// NextStep is the caller's decision about what happens to the lead after
// the recorded interaction.
type NextStep string

const (
	NextStepFollowUp NextStep = "follow_up"
	NextStepReject   NextStep = "reject"
	NextStepRegister NextStep = "register"
	NextStepNone     NextStep = "none"
)

// OutcomeConnected marks a call that actually reached the prospect. It is
// the only outcome that advances a fresh lead to contacted on its own.
const OutcomeConnected = "connected"

// InteractionPayload carries the step-specific inputs.
type InteractionPayload struct {
	FollowUpAt   *time.Time
	FollowUpNote string
	RejectReason string
}

// InteractionEffect is the planned state change for one interaction. The
// repository executes it together with the call-log append in a single
// transaction.
type InteractionEffect struct {
	NewStatus        Status
	StatusChanged    bool
	ResolvePendingAs FollowUpStatus
	ScheduleFollowUp bool
	ClearAssignment  bool
	Reject           bool
}

// PlanInteraction validates the step against the current micro-state and
// returns the effect to apply. It never touches storage.
func PlanInteraction(current Status, outcome string, step NextStep, payload InteractionPayload) (InteractionEffect, error) {
	if current == StatusConverted {
		return InteractionEffect{}, apperr.Precondition("lead already converted")
	}

	switch step {
	case NextStepFollowUp:
		if payload.FollowUpAt == nil {
			return InteractionEffect{}, apperr.Validation("follow-up date is required")
		}
		return InteractionEffect{
			NewStatus:        StatusFollowUp,
			StatusChanged:    true,
			ResolvePendingAs: FollowUpCompleted,
			ScheduleFollowUp: true,
		}, nil

	case NextStepReject:
		if strings.TrimSpace(payload.RejectReason) == "" {
			return InteractionEffect{}, apperr.Validation("rejection reason is required")
		}
		return InteractionEffect{
			NewStatus:        StatusRejected,
			StatusChanged:    true,
			ResolvePendingAs: FollowUpCancelled,
			ClearAssignment:  true,
			Reject:           true,
		}, nil

	case NextStepRegister:
		return InteractionEffect{
			NewStatus:        StatusConvertingToReg,
			StatusChanged:    true,
			ResolvePendingAs: FollowUpCompleted,
		}, nil

	case NextStepNone:
		// A connected call on a fresh lead advances it to contacted;
		// otherwise only the call log appends.
		if outcome == OutcomeConnected && (current == StatusEnquiryReceived || current == StatusAssigned) {
			return InteractionEffect{NewStatus: StatusContacted, StatusChanged: true}, nil
		}
		return InteractionEffect{NewStatus: current}, nil

	default:
		return InteractionEffect{}, apperr.Validation("unknown next step")
	}
}
