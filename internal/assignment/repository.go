package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeops/console/internal/shared"
)

// Repository persists assignment tuples in postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Apply inserts one user-role-store binding. Constraint violations surface as
// field-level validation errors so bulk runs can report them per tuple.
func (r *Repository) Apply(ctx context.Context, tuple Tuple) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_role_store_assignments (user_id, role_id, store_id, metadata, is_active, assigned_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		tuple.UserID, tuple.RoleID, tuple.StoreID, tuple.Metadata, tuple.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return shared.NewValidationError(shared.FieldErrors{
					"assignment": "this user already holds this role in this store",
				})
			case "23503":
				return shared.NewValidationError(shared.FieldErrors{
					pgErr.ConstraintName: "referenced record does not exist",
				})
			}
		}
		return fmt.Errorf("assignment: apply: %w", err)
	}
	return nil
}

// SetActive flips the active flag on an existing binding.
func (r *Repository) SetActive(ctx context.Context, userID, roleID, storeID int64, active bool) (Tuple, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE user_role_store_assignments
		SET is_active = $4
		WHERE user_id = $1 AND role_id = $2 AND store_id = $3
		RETURNING user_id, role_id, store_id, COALESCE(metadata, '{}'::jsonb), is_active`,
		userID, roleID, storeID, active)

	var tuple Tuple
	if err := row.Scan(&tuple.UserID, &tuple.RoleID, &tuple.StoreID, &tuple.Metadata, &tuple.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tuple{}, ErrNotFound
		}
		return Tuple{}, fmt.Errorf("assignment: set active: %w", err)
	}
	return tuple, nil
}

// Delete removes one binding. Reports ErrNotFound so the caller can decide
// whether absence matters; the orchestrator treats it as success.
func (r *Repository) Delete(ctx context.Context, userID, roleID, storeID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_role_store_assignments
		WHERE user_id = $1 AND role_id = $2 AND store_id = $3`,
		userID, roleID, storeID)
	if err != nil {
		return fmt.Errorf("assignment: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns every binding held by one user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Tuple, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, role_id, store_id, COALESCE(metadata, '{}'::jsonb), is_active
		FROM user_role_store_assignments
		WHERE user_id = $1
		ORDER BY assigned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("assignment: list for user: %w", err)
	}
	defer rows.Close()

	var tuples []Tuple
	for rows.Next() {
		var tuple Tuple
		if err := rows.Scan(&tuple.UserID, &tuple.RoleID, &tuple.StoreID, &tuple.Metadata, &tuple.IsActive); err != nil {
			return nil, fmt.Errorf("assignment: scan tuple: %w", err)
		}
		tuples = append(tuples, tuple)
	}
	return tuples, rows.Err()
}
