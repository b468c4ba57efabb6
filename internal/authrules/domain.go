package authrules

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested rule does not exist.
	ErrNotFound = errors.New("authrules: rule not found")
)

// Rule describes one request-authorization rule administered by the console.
// Exactly one of PathPattern/RouteName is meaningful per rule.
type Rule struct {
	ID             int64     `json:"id"`
	Service        string    `json:"service"`
	Method         string    `json:"method"`
	PathPattern    string    `json:"pathPattern,omitempty"`
	RouteName      string    `json:"routeName,omitempty"`
	RolesAny       []string  `json:"rolesAny"`
	PermissionsAny []string  `json:"permissionsAny"`
	PermissionsAll []string  `json:"permissionsAll"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Principal is the role/permission set a rule is evaluated against.
type Principal struct {
	roles       map[string]struct{}
	permissions map[string]struct{}
}

// NewPrincipal builds a Principal from role and permission names.
func NewPrincipal(roles, permissions []string) Principal {
	p := Principal{
		roles:       make(map[string]struct{}, len(roles)),
		permissions: make(map[string]struct{}, len(permissions)),
	}
	for _, r := range roles {
		p.roles[r] = struct{}{}
	}
	for _, perm := range permissions {
		p.permissions[perm] = struct{}{}
	}
	return p
}

// HasRole reports membership of a single role.
func (p Principal) HasRole(name string) bool {
	_, ok := p.roles[name]
	return ok
}

// HasPermission reports membership of a single permission.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.permissions[name]
	return ok
}

// ListFilters narrows rule listings.
type ListFilters struct {
	Service  string
	Method   string
	Active   *bool
	Page     int
	PageSize int
}
