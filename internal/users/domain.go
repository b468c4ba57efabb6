package users

import (
	"errors"
	"time"
)

// ErrNotFound indicates the user does not exist.
var ErrNotFound = errors.New("users: not found")

// User represents a user account for management.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListFilters narrow and page the user listing.
type ListFilters struct {
	Search   string
	Active   *bool
	StoreID  int64
	Page     int
	PageSize int
}
