package stores

import (
	"errors"
	"time"
)

// ErrNotFound indicates the store does not exist.
var ErrNotFound = errors.New("stores: not found")

// Store is one operational location managed through the console.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListFilters narrow and page the store listing.
type ListFilters struct {
	Search   string
	Page     int
	PageSize int
}
