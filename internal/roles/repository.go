package roles

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

// ListRoles returns roles matching the filters along with the total count.
func (r *Repository) ListRoles(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM roles
		WHERE ($1 = '' OR guard_context = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')`,
		filters.GuardContext, filters.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, guard_context, COALESCE(description, ''), created_at, updated_at
		FROM roles
		WHERE ($1 = '' OR guard_context = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		filters.GuardContext, filters.Search, filters.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.GuardContext, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("roles: scan: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, total, rows.Err()
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, guard_context, description, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW(), NOW())
		RETURNING id, name, guard_context, COALESCE(description, ''), created_at, updated_at`,
		role.Name, role.GuardContext, role.Description)

	var created Role
	err := row.Scan(&created.ID, &created.Name, &created.GuardContext, &created.Description, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Role{}, shared.NewValidationError(shared.FieldErrors{
				"name": "a role with this name already exists in this guard context",
			})
		}
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	return created, nil
}
