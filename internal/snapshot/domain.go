package snapshot

import "time"

// Permission is one atomic capability as cached for a session.
type Permission struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	GuardContext string `json:"guardContext"`
}

// Role is one role as cached for a session.
type Role struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	GuardContext string       `json:"guardContext"`
	Permissions  []Permission `json:"permissions,omitempty"`
}

// Store is one store membership as cached for a session.
type Store struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary carries display counts for the cached data.
type Summary struct {
	RoleCount       int `json:"roleCount"`
	PermissionCount int `json:"permissionCount"`
	StoreCount      int `json:"storeCount"`
}

// Snapshot is the denormalized, time-bound view of what a session may do.
// It is replaced wholesale on refresh and never mutated in place.
type Snapshot struct {
	CachedAt          time.Time    `json:"cachedAt"`
	ExpiresAt         time.Time    `json:"expiresAt"`
	AllPermissions    []Permission `json:"allPermissions"`
	GlobalRoles       []Role       `json:"globalRoles"`
	GlobalPermissions []Permission `json:"globalPermissions"`
	RolePermissions   []Permission `json:"rolesPermissions"`
	Stores            []Store      `json:"stores"`
	Summary           Summary      `json:"summary"`
}

func (s *Snapshot) permissionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.AllPermissions)+len(s.GlobalPermissions)+len(s.RolePermissions))
	for _, p := range s.AllPermissions {
		set[p.Name] = struct{}{}
	}
	for _, p := range s.GlobalPermissions {
		set[p.Name] = struct{}{}
	}
	for _, p := range s.RolePermissions {
		set[p.Name] = struct{}{}
	}
	return set
}

func (s *Snapshot) roleSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.GlobalRoles))
	for _, r := range s.GlobalRoles {
		set[r.Name] = struct{}{}
	}
	return set
}
