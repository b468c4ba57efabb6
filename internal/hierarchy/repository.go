package hierarchy

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEdges returns all edges for a store.
func (r *Repository) ListEdges(ctx context.Context, storeID int64) ([]Edge, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, store_id, higher_role_id, lower_role_id, created_by, COALESCE(reason, ''), created_at FROM role_hierarchy_edges WHERE store_id = $1 ORDER BY id`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.StoreID, &e.HigherRoleID, &e.LowerRoleID, &e.CreatedBy, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}

// InsertEdge persists a new edge. The table carries a unique constraint on
// (store_id, higher_role_id, lower_role_id); a violation maps to ErrEdgeExists
// so concurrent validate-then-create races still surface the right reason.
func (r *Repository) InsertEdge(ctx context.Context, input CreateEdgeInput) (Edge, error) {
	edge := Edge{
		StoreID:      input.StoreID,
		HigherRoleID: input.HigherRoleID,
		LowerRoleID:  input.LowerRoleID,
		CreatedBy:    input.CreatedBy,
		Reason:       input.Reason,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO role_hierarchy_edges (store_id, higher_role_id, lower_role_id, created_by, reason, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 RETURNING id, created_at`,
		input.StoreID, input.HigherRoleID, input.LowerRoleID, input.CreatedBy, input.Reason, time.Now().UTC(),
	).Scan(&edge.ID, &edge.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Edge{}, ErrEdgeExists
		}
		return Edge{}, err
	}
	return edge, nil
}

// DeleteEdge removes a single edge. Returns ErrNotFound when nothing matched.
func (r *Repository) DeleteEdge(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM role_hierarchy_edges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleNames resolves names for every role referenced by a store's edges.
func (r *Repository) RoleNames(ctx context.Context, storeID int64) (map[int64]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT r.id, r.name
		 FROM roles r
		 JOIN role_hierarchy_edges e ON r.id IN (e.higher_role_id, e.lower_role_id)
		 WHERE e.store_id = $1`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

var _ RepositoryPort = (*Repository)(nil)
