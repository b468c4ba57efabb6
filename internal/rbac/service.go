package rbac

import (
	"context"
	"fmt"

	"github.com/storeops/console/internal/snapshot"
)

// RepositoryPort defines data access methods for authorization data.
type RepositoryPort interface {
	ListPermissions(ctx context.Context, guardContext string) ([]Permission, error)
	UserRoles(ctx context.Context, userID int64) ([]Role, error)
	UserDirectPermissions(ctx context.Context, userID int64) ([]Permission, error)
	UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error)
	UserStores(ctx context.Context, userID int64) ([]Membership, error)
}

// Service resolves what a user is allowed to do.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPermissions returns permissions, optionally filtered by guard context.
func (s *Service) ListPermissions(ctx context.Context, guardContext string) ([]Permission, error) {
	return s.repo.ListPermissions(ctx, guardContext)
}

// EffectivePermissions returns deduplicated permission names for a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.UserEffectivePermissions(ctx, userID)
}

// BuildSnapshot assembles the denormalized permission snapshot stored at
// session start. Expiry fields are left to the cache.
func (s *Service) BuildSnapshot(ctx context.Context, userID int64) (snapshot.Snapshot, error) {
	roles, err := s.repo.UserRoles(ctx, userID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("rbac: build snapshot: %w", err)
	}
	direct, err := s.repo.UserDirectPermissions(ctx, userID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("rbac: build snapshot: %w", err)
	}
	stores, err := s.repo.UserStores(ctx, userID)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("rbac: build snapshot: %w", err)
	}

	snap := snapshot.Snapshot{
		GlobalPermissions: make([]snapshot.Permission, 0, len(direct)),
		GlobalRoles:       make([]snapshot.Role, 0, len(roles)),
		Stores:            make([]snapshot.Store, 0, len(stores)),
	}

	seen := make(map[string]struct{})
	for _, p := range direct {
		sp := snapshotPermission(p)
		snap.GlobalPermissions = append(snap.GlobalPermissions, sp)
		if _, ok := seen[p.Name]; !ok {
			seen[p.Name] = struct{}{}
			snap.AllPermissions = append(snap.AllPermissions, sp)
		}
	}
	for _, role := range roles {
		sr := snapshot.Role{
			ID:           role.ID,
			Name:         role.Name,
			GuardContext: role.GuardContext,
			Permissions:  make([]snapshot.Permission, 0, len(role.Permissions)),
		}
		for _, p := range role.Permissions {
			sp := snapshotPermission(p)
			sr.Permissions = append(sr.Permissions, sp)
			snap.RolePermissions = append(snap.RolePermissions, sp)
			if _, ok := seen[p.Name]; !ok {
				seen[p.Name] = struct{}{}
				snap.AllPermissions = append(snap.AllPermissions, sp)
			}
		}
		snap.GlobalRoles = append(snap.GlobalRoles, sr)
	}
	for _, m := range stores {
		snap.Stores = append(snap.Stores, snapshot.Store{ID: m.StoreID, Name: m.StoreName})
	}

	snap.Summary = snapshot.Summary{
		RoleCount:       len(snap.GlobalRoles),
		PermissionCount: len(snap.AllPermissions),
		StoreCount:      len(snap.Stores),
	}
	return snap, nil
}

func snapshotPermission(p Permission) snapshot.Permission {
	return snapshot.Permission{ID: p.ID, Name: p.Name, GuardContext: p.GuardContext}
}
