package stores

import (
	"context"
	"strings"

	"github.com/storeops/console/internal/shared"
)

// RepositoryPort defines data access methods for stores.
type RepositoryPort interface {
	ListStores(ctx context.Context, filters ListFilters) ([]Store, int, error)
	CreateStore(ctx context.Context, store Store) (Store, error)
}

// Service handles store business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListStores returns stores matching the filters plus pagination info.
func (s *Service) ListStores(ctx context.Context, filters ListFilters) ([]Store, shared.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
	stores, total, err := s.repo.ListStores(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return stores, shared.NewPagination(filters.Page, filters.PageSize, total), nil
}

// CreateStore inserts a new store.
func (s *Service) CreateStore(ctx context.Context, store Store) (Store, error) {
	store.Name = strings.TrimSpace(store.Name)
	store.Code = strings.TrimSpace(strings.ToUpper(store.Code))

	fields := shared.FieldErrors{}
	if store.Name == "" {
		fields["name"] = "name is required"
	}
	if store.Code == "" {
		fields["code"] = "code is required"
	}
	if len(fields) > 0 {
		return Store{}, shared.NewValidationError(fields)
	}
	store.IsActive = true
	return s.repo.CreateStore(ctx, store)
}
