package roles

import (
	"context"
	"strings"

	"github.com/storeops/console/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filters ListFilters) ([]Role, int, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns roles matching the filters plus pagination info.
func (s *Service) ListRoles(ctx context.Context, filters ListFilters) ([]Role, shared.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
	roles, total, err := s.repo.ListRoles(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return roles, shared.NewPagination(filters.Page, filters.PageSize, total), nil
}

// CreateRole inserts a new role after normalizing its fields. A name is
// unique only within a guard context.
func (s *Service) CreateRole(ctx context.Context, role Role) (Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	role.GuardContext = strings.TrimSpace(strings.ToLower(role.GuardContext))
	role.Description = strings.TrimSpace(role.Description)

	fields := shared.FieldErrors{}
	if role.Name == "" {
		fields["name"] = "name is required"
	}
	if role.GuardContext == "" {
		fields["guardContext"] = "guard context is required"
	}
	if len(fields) > 0 {
		return Role{}, shared.NewValidationError(fields)
	}
	return s.repo.CreateRole(ctx, role)
}
