package assignment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the assignment does not exist.
	ErrNotFound = errors.New("assignment: not found")
	// ErrEmptySelection indicates a bulk run with no complete selection.
	ErrEmptySelection = errors.New("assignment: selection needs at least one user, role and store")
	// ErrInvalidTransition indicates an out-of-order stage change.
	ErrInvalidTransition = errors.New("assignment: invalid stage transition")
)

// Tuple is the atomic unit of a user-role-store binding.
type Tuple struct {
	UserID   int64             `json:"userId"`
	RoleID   int64             `json:"roleId"`
	StoreID  int64             `json:"storeId"`
	Metadata map[string]string `json:"metadata,omitempty"`
	IsActive bool              `json:"isActive"`
}

// Failure describes one tuple that could not be applied.
type Failure struct {
	Tuple  Tuple             `json:"tuple"`
	Reason string            `json:"reason"`
	Fields map[string]string `json:"fields,omitempty"`
}

// SubmitResult reports both halves of a partially-failed bulk run.
// Batch callers must never assume all-or-nothing semantics.
type SubmitResult struct {
	Succeeded []Tuple   `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Summary renders the operator-facing count line, e.g. "3 succeeded, 1 failed".
func (r SubmitResult) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed", len(r.Succeeded), len(r.Failed))
}
