package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one immutable audit record. Rows are never updated or deleted;
// the bigserial id gives a per-subject total order even when timestamps collide.
type Event struct {
	ID          int64
	OccurredAt  time.Time
	ActorID     uuid.UUID
	Action      string
	SubjectKind string
	SubjectID   uuid.UUID
	Metadata    map[string]any
}

// Repository persists audit events with PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one audit event.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO crm_audit_events (occurred_at, actor_id, action, subject_kind, subject_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.OccurredAt, e.ActorID, e.Action, e.SubjectKind, e.SubjectID, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// InsertTx appends one audit event inside an existing transaction so the
// record commits together with the business write that produced it.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, e Event) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO crm_audit_events (occurred_at, actor_id, action, subject_kind, subject_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.OccurredAt, e.ActorID, e.Action, e.SubjectKind, e.SubjectID, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns all events for a subject ordered oldest first.
// Reads are unrestricted.
func (r *Repository) ListBySubject(ctx context.Context, subjectKind string, subjectID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, occurred_at, actor_id, action, subject_kind, subject_id, metadata
		 FROM crm_audit_events
		 WHERE subject_kind = $1 AND subject_id = $2
		 ORDER BY id ASC`,
		subjectKind, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var results []Event
	for rows.Next() {
		var e Event
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.ActorID, &e.Action, &e.SubjectKind, &e.SubjectID, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return results, nil
}
