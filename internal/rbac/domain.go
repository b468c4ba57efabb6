package rbac

import (
	"errors"
	"time"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Role represents a high-level permission grouping. A name is unique only
// within its guard context.
type Role struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	GuardContext string       `json:"guardContext"`
	Description  string       `json:"description,omitempty"`
	Permissions  []Permission `json:"permissions,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Permission represents an atomic capability. Permissions are flat; there is
// no hierarchy among them.
type Permission struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	GuardContext string `json:"guardContext"`
	Description  string `json:"description,omitempty"`
}

// Membership is one store a user belongs to.
type Membership struct {
	StoreID   int64  `json:"storeId"`
	StoreName string `json:"storeName"`
}
