// Package audit provides the append-only audit trail for every
// state-changing action in the CRM workflow. Audit writes never gate
// business correctness: a persistence failure is logged and the caller
// proceeds.
package audit

import (
	"context"
	"time"

	"educrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Recorder is the write-side interface consumed by the other modules.
type Recorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action, subjectKind string, subjectID uuid.UUID, metadata map[string]any)
	RecordTx(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, action, subjectKind string, subjectID uuid.UUID, metadata map[string]any)
}

// Service implements Recorder over the repository.
type Service struct {
	repo *Repository
	log  *logger.Logger
	now  func() time.Time
}

// NewService creates a new audit service.
func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Compile-time check that Service implements Recorder.
var _ Recorder = (*Service)(nil)

// Record appends one audit event. Errors are swallowed after logging so the
// primary operation is never failed by its audit trail.
func (s *Service) Record(ctx context.Context, actorID uuid.UUID, action, subjectKind string, subjectID uuid.UUID, metadata map[string]any) {
	err := s.repo.Insert(ctx, Event{
		OccurredAt:  s.now().UTC(),
		ActorID:     actorID,
		Action:      action,
		SubjectKind: subjectKind,
		SubjectID:   subjectID,
		Metadata:    metadata,
	})
	if err != nil {
		s.log.DatabaseError("audit record "+action, err)
	}
}

// RecordTx appends one audit event inside the caller's transaction. Unlike
// Record, a failure here surfaces as a transaction abort: events written
// inside a lifecycle transition must commit with it or not at all.
func (s *Service) RecordTx(ctx context.Context, tx pgx.Tx, actorID uuid.UUID, action, subjectKind string, subjectID uuid.UUID, metadata map[string]any) {
	err := s.repo.InsertTx(ctx, tx, Event{
		OccurredAt:  s.now().UTC(),
		ActorID:     actorID,
		Action:      action,
		SubjectKind: subjectKind,
		SubjectID:   subjectID,
		Metadata:    metadata,
	})
	if err != nil {
		s.log.DatabaseError("audit record "+action, err)
	}
}

// History returns the full audit trail of a subject, oldest first.
func (s *Service) History(ctx context.Context, subjectKind string, subjectID uuid.UUID) ([]Event, error) {
	return s.repo.ListBySubject(ctx, subjectKind, subjectID)
}
