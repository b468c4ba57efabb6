package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeops/console/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListStores returns stores matching the filters along with the total count.
func (r *Repository) ListStores(ctx context.Context, filters ListFilters) ([]Store, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM stores
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%'`,
		filters.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("stores: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, code, is_active, created_at, updated_at
		FROM stores
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2 OFFSET $3`,
		filters.Search, filters.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("stores: list: %w", err)
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		var st Store
		if err := rows.Scan(&st.ID, &st.Name, &st.Code, &st.IsActive, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("stores: scan: %w", err)
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

// CreateStore inserts a new store.
func (r *Repository) CreateStore(ctx context.Context, store Store) (Store, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO stores (name, code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, code, is_active, created_at, updated_at`,
		store.Name, store.Code, store.IsActive)

	var created Store
	err := row.Scan(&created.ID, &created.Name, &created.Code, &created.IsActive, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Store{}, shared.NewValidationError(shared.FieldErrors{
				"code": "a store with this code already exists",
			})
		}
		return Store{}, fmt.Errorf("stores: create: %w", err)
	}
	return created, nil
}
