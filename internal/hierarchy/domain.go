package hierarchy

import (
	"errors"
	"time"
)

var (
	// ErrEdgeExists indicates the exact higher/lower pair is already present.
	ErrEdgeExists = errors.New("hierarchy: relationship already exists")
	// ErrWouldCycle indicates the edge would close a directed cycle.
	ErrWouldCycle = errors.New("hierarchy: relationship would create a cycle")
	// ErrNotFound indicates the requested edge does not exist.
	ErrNotFound = errors.New("hierarchy: edge not found")
)

// Edge represents a "higher role manages lower role" relation within one store.
type Edge struct {
	ID           int64
	StoreID      int64
	HigherRoleID int64
	LowerRoleID  int64
	CreatedBy    int64
	Reason       string
	CreatedAt    time.Time
}

// Validation reports the two independent pre-insert checks.
type Validation struct {
	Exists     bool
	WouldCycle bool
}

// OK reports whether the edge may be created.
func (v Validation) OK() bool {
	return !v.Exists && !v.WouldCycle
}

// CreateEdgeInput carries the fields required to create an edge.
type CreateEdgeInput struct {
	StoreID      int64
	HigherRoleID int64
	LowerRoleID  int64
	CreatedBy    int64
	Reason       string
}

// TreeNode is one role in the display forest for a store.
type TreeNode struct {
	RoleID   int64       `json:"roleId"`
	RoleName string      `json:"roleName"`
	EdgeID   int64       `json:"edgeId,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// DeleteFailure describes one edge that could not be removed.
type DeleteFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BatchDeleteResult reports per-edge outcomes; partial success is the norm.
type BatchDeleteResult struct {
	Deleted []int64         `json:"deleted"`
	Failed  []DeleteFailure `json:"failed"`
}
