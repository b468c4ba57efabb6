package authrules

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ruleColumns = `id, service, method, COALESCE(path_pattern, ''), COALESCE(route_name, ''), roles_any, permissions_any, permissions_all, priority, is_active, created_at, updated_at`

// ListRules returns rules matching the filters plus the total count.
func (r *Repository) ListRules(ctx context.Context, filters ListFilters) ([]Rule, int, error) {
	where := ` WHERE ($1 = '' OR service = $1) AND ($2 = '' OR method = $2) AND ($3::bool IS NULL OR is_active = $3)`
	var active any
	if filters.Active != nil {
		active = *filters.Active
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM auth_rules`+where, filters.Service, filters.Method, active).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.PageSize
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM auth_rules`+where+` ORDER BY priority, id LIMIT $4 OFFSET $5`,
		filters.Service, filters.Method, active, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return rules, total, nil
}

// GetRule fetches one rule by ID.
func (r *Repository) GetRule(ctx context.Context, id int64) (Rule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM auth_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

// CreateRule inserts a new rule.
func (r *Repository) CreateRule(ctx context.Context, rule Rule) (Rule, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO auth_rules (service, method, path_pattern, route_name, roles_any, permissions_any, permissions_all, priority, is_active, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $10)
		 RETURNING id, created_at, updated_at`,
		rule.Service, rule.Method, rule.PathPattern, rule.RouteName,
		rule.RolesAny, rule.PermissionsAny, rule.PermissionsAll,
		rule.Priority, rule.IsActive, now,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// SetActive updates only the is_active flag and returns the updated rule.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (Rule, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE auth_rules SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+ruleColumns, id, active)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, err
	}
	return rule, nil
}

func scanRule(row pgx.Row) (Rule, error) {
	var rule Rule
	err := row.Scan(
		&rule.ID, &rule.Service, &rule.Method, &rule.PathPattern, &rule.RouteName,
		&rule.RolesAny, &rule.PermissionsAny, &rule.PermissionsAll,
		&rule.Priority, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	return rule, err
}

var _ RepositoryPort = (*Repository)(nil)
