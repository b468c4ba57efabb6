package authrules

import "testing"

func rule(id int64, priority int, active bool) Rule {
	return Rule{
		ID:          id,
		Service:     "orders",
		Method:      "GET",
		PathPattern: "/api/orders/**",
		Priority:    priority,
		IsActive:    active,
	}
}

func TestMatchReturnsLowestPriorityActiveRule(t *testing.T) {
	rules := []Rule{
		rule(1, 20, true),
		rule(2, 5, false), // inactive, must never win
		rule(3, 10, true),
	}
	matched := Match(rules, "orders", "GET", "/api/orders/42")
	if matched == nil {
		t.Fatalf("expected a match")
	}
	if matched.ID != 3 {
		t.Fatalf("expected rule 3, got %d", matched.ID)
	}
}

func TestMatchTiesResolveBySuppliedOrder(t *testing.T) {
	rules := []Rule{
		rule(7, 10, true),
		rule(8, 10, true),
	}
	matched := Match(rules, "orders", "GET", "/api/orders/42")
	if matched == nil || matched.ID != 7 {
		t.Fatalf("expected first-supplied rule to win the tie, got %+v", matched)
	}
}

func TestMatchFiltersServiceAndMethod(t *testing.T) {
	rules := []Rule{rule(1, 1, true)}
	if Match(rules, "billing", "GET", "/api/orders/42") != nil {
		t.Fatalf("service mismatch must not match")
	}
	if Match(rules, "orders", "POST", "/api/orders/42") != nil {
		t.Fatalf("method mismatch must not match")
	}
	if Match(rules, "orders", "get", "/api/orders/42") == nil {
		t.Fatalf("method comparison is case-insensitive")
	}
}

func TestMatchByRouteName(t *testing.T) {
	rules := []Rule{{
		ID: 1, Service: "orders", Method: "GET", RouteName: "orders.show", Priority: 1, IsActive: true,
	}}
	if Match(rules, "orders", "GET", "orders.show") == nil {
		t.Fatalf("expected route-name match")
	}
	if Match(rules, "orders", "GET", "orders.index") != nil {
		t.Fatalf("unexpected match for different route name")
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/orders", "/api/orders", true},
		{"/api/orders", "/api/orders/42", false},
		{"/api/orders/*", "/api/orders/42", true},
		{"/api/orders/*", "/api/orders/42/items", false},
		{"/api/orders/**", "/api/orders/42/items", true},
		{"/api/orders/**", "/api/orders", true},
		{"/api/*/items", "/api/orders/items", true},
		{"/api/*/items", "/api/items", false},
	}
	for _, tc := range cases {
		if got := matchPattern(tc.pattern, tc.path); got != tc.want {
			t.Fatalf("matchPattern(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestAuthorizeOpenRule(t *testing.T) {
	open := Rule{}
	if !Authorize(open, NewPrincipal(nil, nil)) {
		t.Fatalf("rule with all lists empty must authorize any principal")
	}
}

func TestAuthorizePermissionsAllOnly(t *testing.T) {
	r := Rule{PermissionsAll: []string{"x", "y"}}

	if Authorize(r, NewPrincipal([]string{"admin"}, []string{"x"})) {
		t.Fatalf("missing y: must be denied regardless of roles")
	}
	if !Authorize(r, NewPrincipal(nil, []string{"x", "y"})) {
		t.Fatalf("holding both x and y must authorize")
	}
}

func TestAuthorizeAnyListsAreAlternatives(t *testing.T) {
	r := Rule{
		RolesAny:       []string{"manager"},
		PermissionsAny: []string{"orders.view"},
	}

	if !Authorize(r, NewPrincipal([]string{"manager"}, nil)) {
		t.Fatalf("role alone must satisfy the any-checks")
	}
	if !Authorize(r, NewPrincipal(nil, []string{"orders.view"})) {
		t.Fatalf("permission alone must satisfy the any-checks")
	}
	if Authorize(r, NewPrincipal([]string{"cashier"}, []string{"orders.edit"})) {
		t.Fatalf("neither list satisfied: must be denied")
	}
}

func TestAuthorizeAllIsAlwaysRequired(t *testing.T) {
	r := Rule{
		RolesAny:       []string{"manager"},
		PermissionsAll: []string{"orders.approve"},
	}
	if Authorize(r, NewPrincipal([]string{"manager"}, nil)) {
		t.Fatalf("permissions-all unmet: role match alone must not authorize")
	}
	if !Authorize(r, NewPrincipal([]string{"manager"}, []string{"orders.approve"})) {
		t.Fatalf("role plus required permission must authorize")
	}
}

func TestAuthorizeIsMonotonic(t *testing.T) {
	r := Rule{
		RolesAny:       []string{"manager"},
		PermissionsAny: []string{"orders.view"},
		PermissionsAll: []string{"orders.approve"},
	}
	roles := []string{"manager"}
	perms := []string{"orders.approve"}
	if !Authorize(r, NewPrincipal(roles, perms)) {
		t.Fatalf("baseline principal must be authorized")
	}
	// Growing either set never revokes authorization.
	if !Authorize(r, NewPrincipal(append(roles, "auditor"), perms)) {
		t.Fatalf("extra role flipped the decision")
	}
	if !Authorize(r, NewPrincipal(roles, append(perms, "orders.view", "extra"))) {
		t.Fatalf("extra permissions flipped the decision")
	}
}
