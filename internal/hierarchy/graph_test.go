package hierarchy

import "testing"

func edge(id, store, higher, lower int64) Edge {
	return Edge{ID: id, StoreID: store, HigherRoleID: higher, LowerRoleID: lower}
}

func TestReachesFollowsTransitiveEdges(t *testing.T) {
	g := buildGraph([]Edge{
		edge(1, 1, 10, 20),
		edge(2, 1, 20, 30),
	})

	if !g.reaches(10, 30) {
		t.Fatalf("expected 10 to reach 30 transitively")
	}
	if g.reaches(30, 10) {
		t.Fatalf("did not expect 30 to reach 10")
	}
	if !g.reaches(20, 20) {
		t.Fatalf("expected a node to reach itself")
	}
}

func TestValidateDetectsDuplicateAndCycle(t *testing.T) {
	edges := []Edge{
		edge(1, 1, 10, 20), // manager manages cashier
	}

	check := validate(edges, 10, 20)
	if !check.Exists {
		t.Fatalf("expected exists=true for duplicate edge")
	}

	// Reversing the pair must be flagged as a cycle.
	check = validate(edges, 20, 10)
	if check.Exists {
		t.Fatalf("reverse edge is not a duplicate")
	}
	if !check.WouldCycle {
		t.Fatalf("expected wouldCycle=true for reverse edge")
	}

	// Self-edge is the trivial cycle.
	check = validate(edges, 10, 10)
	if !check.WouldCycle {
		t.Fatalf("expected wouldCycle=true for self edge")
	}

	// An unrelated pair passes both checks.
	check = validate(edges, 30, 40)
	if !check.OK() {
		t.Fatalf("expected unrelated edge to validate, got %+v", check)
	}
}

func TestValidateDetectsTransitiveCycle(t *testing.T) {
	edges := []Edge{
		edge(1, 1, 10, 20),
		edge(2, 1, 20, 30),
	}
	check := validate(edges, 30, 10)
	if !check.WouldCycle {
		t.Fatalf("expected wouldCycle=true when lower reaches higher transitively")
	}
}

func TestBuildForestRootsAndChildren(t *testing.T) {
	edges := []Edge{
		edge(1, 1, 10, 20),
		edge(2, 1, 10, 30),
		edge(3, 1, 20, 40),
	}
	forest := buildForest(edges, map[int64]string{
		10: "Director",
		20: "Manager",
		30: "Auditor",
		40: "Cashier",
	})

	if len(forest) != 1 {
		t.Fatalf("expected single root, got %d", len(forest))
	}
	root := forest[0]
	if root.RoleID != 10 {
		t.Fatalf("expected root role 10, got %d", root.RoleID)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	// Children ordered by name: Auditor before Manager.
	if root.Children[0].RoleName != "Auditor" || root.Children[1].RoleName != "Manager" {
		t.Fatalf("unexpected child order: %q, %q", root.Children[0].RoleName, root.Children[1].RoleName)
	}
	manager := root.Children[1]
	if len(manager.Children) != 1 || manager.Children[0].RoleID != 40 {
		t.Fatalf("expected Manager to carry Cashier child")
	}
}

func TestBuildForestMultipleRoots(t *testing.T) {
	edges := []Edge{
		edge(1, 1, 10, 20),
		edge(2, 1, 30, 40),
	}
	forest := buildForest(edges, map[int64]string{10: "A", 20: "B", 30: "C", 40: "D"})
	if len(forest) != 2 {
		t.Fatalf("expected two roots, got %d", len(forest))
	}
}
