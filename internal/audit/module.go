package audit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apphttp "educrm_backend/internal/http"
	"educrm_backend/platform/httpkit"
)

// Module exposes the read side of the audit trail over HTTP. Writes only
// ever happen through Recorder; there is no mutation surface here.
type Module struct {
	service *Service
}

// NewModule creates the audit module around an existing service.
func NewModule(svc *Service) *Module {
	return &Module{service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "audit" }

// RegisterRoutes mounts the audit trail read endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/audit/:subjectKind/:subjectId", m.history)
}

// EventResponse is one audit record in API responses.
type EventResponse struct {
	ID          int64          `json:"id"`
	OccurredAt  string         `json:"occurredAt"`
	ActorID     uuid.UUID      `json:"actorId"`
	Action      string         `json:"action"`
	SubjectKind string         `json:"subjectKind"`
	SubjectID   uuid.UUID      `json:"subjectId"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

var validSubjectKinds = map[string]bool{
	SubjectLead:         true,
	SubjectRegistration: true,
	SubjectApplication:  true,
	SubjectLoan:         true,
	SubjectDocument:     true,
	SubjectEmployee:     true,
}

// history returns a subject's full audit trail, oldest first.
// GET /api/v1/audit/:subjectKind/:subjectId
func (m *Module) history(c *gin.Context) {
	subjectKind := c.Param("subjectKind")
	if !validSubjectKinds[subjectKind] {
		httpkit.Error(c, http.StatusBadRequest, "invalid subject kind", nil)
		return
	}

	subjectID, err := uuid.Parse(c.Param("subjectId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid subject ID", nil)
		return
	}

	events, err := m.service.History(c.Request.Context(), subjectKind, subjectID)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, EventResponse{
			ID:          e.ID,
			OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339),
			ActorID:     e.ActorID,
			Action:      e.Action,
			SubjectKind: e.SubjectKind,
			SubjectID:   e.SubjectID,
			Metadata:    e.Metadata,
		})
	}
	httpkit.OK(c, gin.H{"items": responses})
}
