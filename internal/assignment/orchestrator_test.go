package assignment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/storeops/console/internal/shared"
)

type stubSubmitter struct {
	applied []Tuple
	failOn  map[string]error
	deleted []string
	stored  map[int64][]Tuple
}

func tupleKey(userID, roleID, storeID int64) string {
	return fmt.Sprintf("%d/%d/%d", userID, roleID, storeID)
}

func (s *stubSubmitter) Apply(ctx context.Context, tuple Tuple) error {
	if err, ok := s.failOn[tupleKey(tuple.UserID, tuple.RoleID, tuple.StoreID)]; ok {
		return err
	}
	s.applied = append(s.applied, tuple)
	return nil
}

func (s *stubSubmitter) SetActive(ctx context.Context, userID, roleID, storeID int64, active bool) (Tuple, error) {
	if err, ok := s.failOn[tupleKey(userID, roleID, storeID)]; ok {
		return Tuple{}, err
	}
	return Tuple{UserID: userID, RoleID: roleID, StoreID: storeID, IsActive: active}, nil
}

func (s *stubSubmitter) Delete(ctx context.Context, userID, roleID, storeID int64) error {
	key := tupleKey(userID, roleID, storeID)
	if err, ok := s.failOn[key]; ok {
		return err
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubSubmitter) ListForUser(ctx context.Context, userID int64) ([]Tuple, error) {
	return s.stored[userID], nil
}

func TestBuildTuplesIsCrossProductOfSelection(t *testing.T) {
	tuples := BuildTuples([]int64{1, 2}, []int64{10}, []int64{100, 200}, nil)
	if len(tuples) != 4 {
		t.Fatalf("expected 4 tuples, got %d", len(tuples))
	}
	want := []Tuple{
		{UserID: 1, RoleID: 10, StoreID: 100, IsActive: true},
		{UserID: 1, RoleID: 10, StoreID: 200, IsActive: true},
		{UserID: 2, RoleID: 10, StoreID: 100, IsActive: true},
		{UserID: 2, RoleID: 10, StoreID: 200, IsActive: true},
	}
	for i, tuple := range tuples {
		if tuple.UserID != want[i].UserID || tuple.RoleID != want[i].RoleID || tuple.StoreID != want[i].StoreID {
			t.Fatalf("tuple %d = %+v, want %+v", i, tuple, want[i])
		}
		if !tuple.IsActive {
			t.Fatalf("tuple %d must start active", i)
		}
	}
}

func TestBuildTuplesEmptySetYieldsNothing(t *testing.T) {
	if tuples := BuildTuples([]int64{1, 2}, nil, []int64{100}, nil); len(tuples) != 0 {
		t.Fatalf("empty role selection must yield no tuples, got %d", len(tuples))
	}
}

func TestSubmitIsolatesSingleFailure(t *testing.T) {
	sub := &stubSubmitter{failOn: map[string]error{
		tupleKey(2, 10, 100): errors.New("connection reset"),
	}}
	orch := NewOrchestrator(sub, nil, nil, nil)

	tuples := BuildTuples([]int64{1, 2, 3}, []int64{10}, []int64{100}, nil)
	result := orch.Submit(context.Background(), 7, "run-1", tuples)

	if len(result.Succeeded) != 2 {
		t.Fatalf("expected 2 succeeded, got %d", len(result.Succeeded))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failed, got %d", len(result.Failed))
	}
	// Failure of tuple 2 must not short-circuit tuple 3.
	if sub.applied[len(sub.applied)-1].UserID != 3 {
		t.Fatalf("tuple after the failure was not attempted")
	}
	if result.Failed[0].Reason != "request failed, please retry" {
		t.Fatalf("unexpected reason %q", result.Failed[0].Reason)
	}
	if got := result.Summary(); got != "2 succeeded, 1 failed" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestSubmitClassifiesFailures(t *testing.T) {
	sub := &stubSubmitter{failOn: map[string]error{
		tupleKey(1, 10, 100): shared.ErrForbidden,
		tupleKey(2, 10, 100): shared.NewValidationError(shared.FieldErrors{"roleId": "role is archived"}),
	}}
	orch := NewOrchestrator(sub, nil, nil, nil)

	tuples := BuildTuples([]int64{1, 2}, []int64{10}, []int64{100}, nil)
	result := orch.Submit(context.Background(), 7, "run-1", tuples)

	if len(result.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(result.Failed))
	}
	if result.Failed[0].Reason != "insufficient permission" {
		t.Fatalf("403-class failure misclassified as %q", result.Failed[0].Reason)
	}
	if result.Failed[1].Fields["roleId"] != "role is archived" {
		t.Fatalf("422-class failure lost its field messages: %+v", result.Failed[1])
	}
}

func TestSubmitPreservesTupleOrder(t *testing.T) {
	sub := &stubSubmitter{}
	orch := NewOrchestrator(sub, nil, nil, nil)

	tuples := BuildTuples([]int64{3, 1, 2}, []int64{10}, []int64{100}, nil)
	result := orch.Submit(context.Background(), 7, "run-1", tuples)

	for i, tuple := range result.Succeeded {
		if tuple.UserID != tuples[i].UserID || tuple.RoleID != tuples[i].RoleID || tuple.StoreID != tuples[i].StoreID {
			t.Fatalf("result order diverged from tuple order at %d", i)
		}
	}
}

func TestListForUserReturnsStoredBindings(t *testing.T) {
	sub := &stubSubmitter{stored: map[int64][]Tuple{
		1: {
			{UserID: 1, RoleID: 10, StoreID: 100, IsActive: true},
			{UserID: 1, RoleID: 11, StoreID: 100, IsActive: false},
		},
	}}
	orch := NewOrchestrator(sub, nil, nil, nil)

	tuples, err := orch.ListForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(tuples) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(tuples))
	}

	tuples, err = orch.ListForUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("list for user without bindings: %v", err)
	}
	if len(tuples) != 0 {
		t.Fatalf("expected no bindings, got %d", len(tuples))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	sub := &stubSubmitter{failOn: map[string]error{
		tupleKey(1, 10, 100): ErrNotFound,
	}}
	orch := NewOrchestrator(sub, nil, nil, nil)

	if err := orch.Remove(context.Background(), 1, 10, 100); err != nil {
		t.Fatalf("removing a missing assignment must not fail: %v", err)
	}
	if err := orch.Remove(context.Background(), 2, 10, 100); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
