package authrules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storeops/console/internal/shared"
)

type memoryRuleRepo struct {
	rules  map[int64]Rule
	order  []int64
	nextID int64
}

func newMemoryRuleRepo() *memoryRuleRepo {
	return &memoryRuleRepo{rules: make(map[int64]Rule)}
}

func (r *memoryRuleRepo) ListRules(ctx context.Context, filters ListFilters) ([]Rule, int, error) {
	var out []Rule
	for _, id := range r.order {
		rule := r.rules[id]
		if filters.Service != "" && rule.Service != filters.Service {
			continue
		}
		out = append(out, rule)
	}
	return out, len(out), nil
}

func (r *memoryRuleRepo) GetRule(ctx context.Context, id int64) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return Rule{}, ErrNotFound
	}
	return rule, nil
}

func (r *memoryRuleRepo) CreateRule(ctx context.Context, rule Rule) (Rule, error) {
	r.nextID++
	rule.ID = r.nextID
	r.rules[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	return rule, nil
}

func (r *memoryRuleRepo) SetActive(ctx context.Context, id int64, active bool) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return Rule{}, ErrNotFound
	}
	rule.IsActive = active
	r.rules[id] = rule
	return rule, nil
}

func TestCreateRequiresExactlyOneTarget(t *testing.T) {
	svc := NewService(newMemoryRuleRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, Rule{Service: "orders", Method: "GET"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "pathPattern")

	_, err = svc.Create(ctx, 1, Rule{Service: "orders", Method: "GET", PathPattern: "/a", RouteName: "a"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, 1, Rule{Service: "orders", Method: "get", PathPattern: "/a"})
	require.NoError(t, err)
}

func TestCreateNormalizesMethod(t *testing.T) {
	repo := newMemoryRuleRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), 1, Rule{Service: "orders", Method: " post ", PathPattern: "/a"})
	require.NoError(t, err)
	require.Equal(t, "POST", created.Method)
}

func TestToggleFlipsOnlyActiveFlag(t *testing.T) {
	repo := newMemoryRuleRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, Rule{Service: "orders", Method: "GET", PathPattern: "/a", Priority: 7, IsActive: true})
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, 1, created.ID, false)
	require.NoError(t, err)
	require.False(t, toggled.IsActive)
	require.Equal(t, created.Priority, toggled.Priority)

	_, err = svc.Toggle(ctx, 1, 999, true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewMatchesAndAuthorizes(t *testing.T) {
	repo := newMemoryRuleRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, Rule{
		Service:        "orders",
		Method:         "GET",
		PathPattern:    "/api/orders/**",
		PermissionsAll: []string{"orders.view"},
		Priority:       1,
		IsActive:       true,
	})
	require.NoError(t, err)

	result, err := svc.Preview(ctx, PreviewInput{
		Service:     "orders",
		Method:      "GET",
		Path:        "/api/orders/42",
		Permissions: []string{"orders.view"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Matched)
	require.True(t, result.Authorized)

	denied, err := svc.Preview(ctx, PreviewInput{
		Service: "orders",
		Method:  "GET",
		Path:    "/api/orders/42",
	})
	require.NoError(t, err)
	require.NotNil(t, denied.Matched)
	require.False(t, denied.Authorized)

	miss, err := svc.Preview(ctx, PreviewInput{Service: "orders", Method: "DELETE", Path: "/nope"})
	require.NoError(t, err)
	require.Nil(t, miss.Matched)
}
