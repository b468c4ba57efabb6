package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/storeops/console/internal/shared"
)

// RepositoryPort defines data access methods for hierarchy edges.
type RepositoryPort interface {
	ListEdges(ctx context.Context, storeID int64) ([]Edge, error)
	InsertEdge(ctx context.Context, input CreateEdgeInput) (Edge, error)
	DeleteEdge(ctx context.Context, id int64) error
	RoleNames(ctx context.Context, storeID int64) (map[int64]string, error)
}

// AuditRecorder persists audit entries for hierarchy mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains the per-store acyclic manages-relation between roles.
type Service struct {
	repo   RepositoryPort
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Validate checks whether the exact edge already exists and, independently,
// whether adding it would close a cycle. It never mutates state.
func (s *Service) Validate(ctx context.Context, storeID, higherRoleID, lowerRoleID int64) (Validation, error) {
	edges, err := s.repo.ListEdges(ctx, storeID)
	if err != nil {
		return Validation{}, fmt.Errorf("hierarchy: list edges: %w", err)
	}
	return validate(edges, higherRoleID, lowerRoleID), nil
}

func validate(edges []Edge, higherRoleID, lowerRoleID int64) Validation {
	return Validation{
		Exists: containsEdge(edges, higherRoleID, lowerRoleID),
		// The edge higher->lower closes a cycle iff lower already reaches
		// higher, including the trivial self-edge.
		WouldCycle: buildGraph(edges).reaches(lowerRoleID, higherRoleID),
	}
}

// Create inserts an edge after re-running validation. A prior Validate call is
// a convenience check, not a lock, so the checks run again here.
func (s *Service) Create(ctx context.Context, input CreateEdgeInput) (Edge, error) {
	check, err := s.Validate(ctx, input.StoreID, input.HigherRoleID, input.LowerRoleID)
	if err != nil {
		return Edge{}, err
	}
	if check.Exists {
		return Edge{}, ErrEdgeExists
	}
	if check.WouldCycle {
		return Edge{}, ErrWouldCycle
	}

	edge, err := s.repo.InsertEdge(ctx, input)
	if err != nil {
		return Edge{}, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.CreatedBy,
			Action:   shared.AuditActionCreate,
			Entity:   "hierarchy_edge",
			EntityID: strconv.FormatInt(edge.ID, 10),
			Meta: map[string]any{
				"store_id":       edge.StoreID,
				"higher_role_id": edge.HigherRoleID,
				"lower_role_id":  edge.LowerRoleID,
				"reason":         edge.Reason,
			},
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit hierarchy create", slog.Any("error", err))
		}
	}
	return edge, nil
}

// DeleteBatch removes edges independently; one failure never blocks the rest.
func (s *Service) DeleteBatch(ctx context.Context, actorID int64, edgeIDs []int64) (BatchDeleteResult, error) {
	result := BatchDeleteResult{Deleted: make([]int64, 0, len(edgeIDs))}
	for _, id := range edgeIDs {
		if err := s.repo.DeleteEdge(ctx, id); err != nil {
			result.Failed = append(result.Failed, DeleteFailure{ID: id, Reason: deleteReason(err)})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	if s.audit != nil && len(result.Deleted) > 0 {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditActionDelete,
			Entity:   "hierarchy_edge",
			EntityID: "batch",
			Meta: map[string]any{
				"deleted": result.Deleted,
				"failed":  len(result.Failed),
			},
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit hierarchy delete", slog.Any("error", err))
		}
	}
	return result, nil
}

// BuildTree produces the forest of roots for a store, each carrying nested
// children computed by following outgoing edges.
func (s *Service) BuildTree(ctx context.Context, storeID int64) ([]*TreeNode, error) {
	edges, err := s.repo.ListEdges(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: list edges: %w", err)
	}
	names, err := s.repo.RoleNames(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: role names: %w", err)
	}
	return buildForest(edges, names), nil
}

func deleteReason(err error) string {
	switch {
	case err == nil:
		return ""
	case err == ErrNotFound:
		return "edge not found"
	default:
		return err.Error()
	}
}
