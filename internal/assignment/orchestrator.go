package assignment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/storeops/console/internal/shared"
)

// Submitter applies and reads individual assignment bindings.
type Submitter interface {
	Apply(ctx context.Context, tuple Tuple) error
	SetActive(ctx context.Context, userID, roleID, storeID int64, active bool) (Tuple, error)
	Delete(ctx context.Context, userID, roleID, storeID int64) error
	ListForUser(ctx context.Context, userID int64) ([]Tuple, error)
}

// AuditRecorder persists audit entries for bulk runs.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// TupleObserver counts processed tuples by outcome.
type TupleObserver interface {
	ObserveBulkTuple(outcome string)
}

// Orchestrator expands a multi-select of users, roles, and stores into
// individual assignment operations with partial-failure reporting.
type Orchestrator struct {
	submitter Submitter
	audit     AuditRecorder
	observer  TupleObserver
	logger    *slog.Logger
}

// NewOrchestrator builds an Orchestrator instance.
func NewOrchestrator(submitter Submitter, audit AuditRecorder, observer TupleObserver, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{submitter: submitter, audit: audit, observer: observer, logger: logger}
}

// BuildTuples produces one tuple per (user, role, store) combination of the
// selected sets, in selection order: users outermost, stores innermost.
func BuildTuples(users, roles, stores []int64, metadata map[string]string) []Tuple {
	tuples := make([]Tuple, 0, len(users)*len(roles)*len(stores))
	for _, u := range users {
		for _, r := range roles {
			for _, s := range stores {
				tuples = append(tuples, Tuple{
					UserID:   u,
					RoleID:   r,
					StoreID:  s,
					Metadata: metadata,
					IsActive: true,
				})
			}
		}
	}
	return tuples
}

// Submit attempts each tuple independently and sequentially. A failure never
// aborts the remaining tuples, and result order matches tuple order.
func (o *Orchestrator) Submit(ctx context.Context, actorID int64, runID string, tuples []Tuple) SubmitResult {
	result := SubmitResult{
		Succeeded: make([]Tuple, 0, len(tuples)),
		Failed:    make([]Failure, 0),
	}
	for _, tuple := range tuples {
		if err := o.submitter.Apply(ctx, tuple); err != nil {
			result.Failed = append(result.Failed, classify(tuple, err))
			o.observe("failed")
			if o.logger != nil {
				o.logger.Warn("assignment tuple failed",
					slog.Int64("user_id", tuple.UserID),
					slog.Int64("role_id", tuple.RoleID),
					slog.Int64("store_id", tuple.StoreID),
					slog.Any("error", err))
			}
			continue
		}
		result.Succeeded = append(result.Succeeded, tuple)
		o.observe("succeeded")
	}

	o.recordRun(ctx, actorID, runID, result)
	return result
}

// ListForUser returns the assignments currently held by one user.
func (o *Orchestrator) ListForUser(ctx context.Context, userID int64) ([]Tuple, error) {
	return o.submitter.ListForUser(ctx, userID)
}

// ToggleStatus flips the active flag on one existing assignment.
func (o *Orchestrator) ToggleStatus(ctx context.Context, userID, roleID, storeID int64, active bool) (Tuple, error) {
	return o.submitter.SetActive(ctx, userID, roleID, storeID, active)
}

// Remove deletes one assignment. Removing an assignment that does not exist
// is not an error; removal is idempotent.
func (o *Orchestrator) Remove(ctx context.Context, userID, roleID, storeID int64) error {
	err := o.submitter.Delete(ctx, userID, roleID, storeID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// classify maps an apply failure onto the operator-facing taxonomy:
// permission failures, field-level validation failures, and everything else
// as a generic retryable failure.
func classify(tuple Tuple, err error) Failure {
	if errors.Is(err, shared.ErrForbidden) {
		return Failure{Tuple: tuple, Reason: "insufficient permission"}
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return Failure{Tuple: tuple, Reason: "validation failed", Fields: verr.Fields}
	}
	return Failure{Tuple: tuple, Reason: "request failed, please retry"}
}

func (o *Orchestrator) observe(outcome string) {
	if o.observer != nil {
		o.observer.ObserveBulkTuple(outcome)
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, actorID int64, runID string, result SubmitResult) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditActionSubmit,
		Entity:   "assignment_run",
		EntityID: runID,
		Meta: map[string]any{
			"succeeded": len(result.Succeeded),
			"failed":    len(result.Failed),
		},
	}); err != nil && o.logger != nil {
		o.logger.Warn("audit assignment run", slog.Any("error", err))
	}
}
