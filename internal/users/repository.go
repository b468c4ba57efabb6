package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeops/console/internal/shared"
)

const userColumns = `id, email, COALESCE(name, ''), is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns users matching the filters along with the total count.
func (r *Repository) ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var active *bool
	if filters.Active != nil {
		active = filters.Active
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM users u
		WHERE ($1 = '' OR u.email ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%')
		  AND ($2::bool IS NULL OR u.is_active = $2)
		  AND ($3::bigint = 0 OR EXISTS (
		        SELECT 1 FROM user_role_store_assignments a
		        WHERE a.user_id = u.id AND a.store_id = $3))`,
		filters.Search, active, filters.StoreID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE ($1 = '' OR u.email ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%')
		  AND ($2::bool IS NULL OR u.is_active = $2)
		  AND ($3::bigint = 0 OR EXISTS (
		        SELECT 1 FROM user_role_store_assignments a
		        WHERE a.user_id = u.id AND a.store_id = $3))
		ORDER BY u.email
		LIMIT $4 OFFSET $5`,
		filters.Search, active, filters.StoreID, filters.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// GetUser fetches one user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE id = $1`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NOW(), NOW())
		RETURNING `+userColumns,
		user.Email, user.Name, passwordHash, user.IsActive)

	var created User
	err := row.Scan(&created.ID, &created.Email, &created.Name, &created.IsActive, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, shared.NewValidationError(shared.FieldErrors{
				"email": "an account with this email already exists",
			})
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return created, nil
}

// SetActive enables or disables an account.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, active)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: set active: %w", err)
	}
	return u, nil
}
