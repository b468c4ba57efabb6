package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/storeops/console/internal/assignment"
	"github.com/storeops/console/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBulkAssignment is the task type for large assignment runs.
	TaskTypeBulkAssignment = "assignment:bulk"
)

// BulkAssignmentPayload carries one queued assignment run.
type BulkAssignmentPayload struct {
	RunID   string             `json:"runId"`
	ActorID int64              `json:"actorId"`
	Tuples  []assignment.Tuple `json:"tuples"`
}

// NewBulkAssignmentTask constructs an Asynq task for a bulk run.
func NewBulkAssignmentTask(payload BulkAssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBulkAssignment, data), nil
}

// NewBulkAssignmentHandler returns the worker-side handler that replays the
// run through the orchestrator. Tuple failures are part of the stored result,
// not a task failure, so the task is never retried for them. Redelivered
// tasks are dropped via the idempotency store keyed on the run ID.
func NewBulkAssignmentHandler(orchestrator *assignment.Orchestrator, idempotency *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload BulkAssignmentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if idempotency != nil {
			if err := idempotency.CheckAndInsert(ctx, payload.RunID, "assignment"); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					if logger != nil {
						logger.Info("bulk assignment run already processed", slog.String("run_id", payload.RunID))
					}
					return nil
				}
				return err
			}
		}
		ctx = shared.ContextWithActorID(ctx, payload.ActorID)
		result := orchestrator.Submit(ctx, payload.ActorID, payload.RunID, payload.Tuples)
		if logger != nil {
			logger.Info("bulk assignment run processed",
				slog.String("run_id", payload.RunID),
				slog.Int("succeeded", len(result.Succeeded)),
				slog.Int("failed", len(result.Failed)))
		}
		return nil
	}
}
