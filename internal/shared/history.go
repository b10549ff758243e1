package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowAction enumerates workflow history actions.
type WorkflowAction string

const (
	// WorkflowSubmit marks a contributor submission.
	WorkflowSubmit WorkflowAction = "SUBMIT"
	// WorkflowApprove marks a validator approval.
	WorkflowApprove WorkflowAction = "APPROVE"
	// WorkflowReject marks a validator rejection.
	WorkflowReject WorkflowAction = "REJECT"
	// WorkflowEdit marks a contributor correction after rejection.
	WorkflowEdit WorkflowAction = "EDIT"
)

// WorkflowEvent represents a single workflow history record for a ledger row.
type WorkflowEvent struct {
	ID      int64
	RowUID  uuid.UUID
	ActorID int64
	Action  WorkflowAction
	Note    string
	At      time.Time
}

// WorkflowRecorder persists the per-row workflow trail.
type WorkflowRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewWorkflowRecorder constructs WorkflowRecorder.
func NewWorkflowRecorder(pool *pgxpool.Pool, logger *slog.Logger) *WorkflowRecorder {
	return &WorkflowRecorder{pool: pool, logger: logger}
}

// Record writes a workflow event to the database.
func (r *WorkflowRecorder) Record(ctx context.Context, event WorkflowEvent) error {
	if r == nil {
		return errors.New("workflow recorder not initialised")
	}
	if event.RowUID == uuid.Nil {
		return errors.New("workflow event row uid required")
	}
	if event.ActorID == 0 {
		return errors.New("workflow event actor required")
	}
	if event.Action == "" {
		return errors.New("workflow event action required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO workflow_events (row_uid, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		event.RowUID, event.ActorID, string(event.Action), event.Note, event.At)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("record workflow event", slog.Any("error", err))
		}
		return err
	}
	return nil
}

// List returns the workflow trail for a ledger row, oldest first.
func (r *WorkflowRecorder) List(ctx context.Context, rowUID uuid.UUID) ([]WorkflowEvent, error) {
	if r == nil {
		return nil, errors.New("workflow recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, row_uid, actor_id, action, note, at
FROM workflow_events WHERE row_uid=$1 ORDER BY at ASC`, rowUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []WorkflowEvent
	for rows.Next() {
		var ev WorkflowEvent
		var action string
		if err := rows.Scan(&ev.ID, &ev.RowUID, &ev.ActorID, &action, &ev.Note, &ev.At); err != nil {
			return nil, err
		}
		ev.Action = WorkflowAction(action)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
