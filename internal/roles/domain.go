package roles

import (
	"errors"
	"time"
)

// ErrNotFound indicates the role does not exist.
var ErrNotFound = errors.New("roles: not found")

// Role represents a role for management.
type Role struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	GuardContext string    `json:"guardContext"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListFilters narrow and page the role listing.
type ListFilters struct {
	GuardContext string
	Search       string
	Page         int
	PageSize     int
}
