package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads role and permission data from postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context, guardContext string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, guard_context, COALESCE(description, '')
		FROM permissions
		WHERE $1 = '' OR guard_context = $1
		ORDER BY name`, guardContext)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.GuardContext, &p.Description); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UserRoles returns the roles held by a user, with their permissions attached.
func (r *Repository) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ro.id, ro.name, ro.guard_context, COALESCE(ro.description, ''), ro.created_at, ro.updated_at
		FROM roles ro
		JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ur.user_id = $1
		ORDER BY ro.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var ro Role
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.GuardContext, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		perms, err := r.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

// UserDirectPermissions returns permissions granted to a user outside of any
// role.
func (r *Repository) UserDirectPermissions(ctx context.Context, userID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.guard_context, COALESCE(p.description, '')
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user direct permissions: %w", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// UserEffectivePermissions returns deduplicated permission names for a user,
// combining role-derived and directly-granted permissions.
func (r *Repository) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM permissions p
		LEFT JOIN role_permissions rp ON rp.permission_id = p.id
		LEFT JOIN user_roles ur ON ur.role_id = rp.role_id AND ur.user_id = $1
		LEFT JOIN user_permissions up ON up.permission_id = p.id AND up.user_id = $1
		WHERE ur.user_id IS NOT NULL OR up.user_id IS NOT NULL
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("rbac: scan permission name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UserStores returns the stores a user is a member of.
func (r *Repository) UserStores(ctx context.Context, userID int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name
		FROM stores s
		JOIN user_role_store_assignments a ON a.store_id = s.id
		WHERE a.user_id = $1 AND a.is_active
		GROUP BY s.id, s.name
		ORDER BY s.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user stores: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.StoreID, &m.StoreName); err != nil {
			return nil, fmt.Errorf("rbac: scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.guard_context, COALESCE(p.description, '')
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

type permissionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPermissions(rows permissionRows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.GuardContext, &p.Description); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
