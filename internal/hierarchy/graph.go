package hierarchy

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// graph is an adjacency view over one store's edges.
type graph struct {
	out map[int64][]int64
}

func buildGraph(edges []Edge) *graph {
	g := &graph{out: make(map[int64][]int64, len(edges))}
	for _, e := range edges {
		g.out[e.HigherRoleID] = append(g.out[e.HigherRoleID], e.LowerRoleID)
	}
	return g
}

// reaches reports whether `to` is reachable from `from` by following
// manages-edges, including the trivial case from == to.
func (g *graph) reaches(from, to int64) bool {
	if from == to {
		return true
	}
	visited := map[int64]struct{}{from: {}}
	queue := []int64{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.out[current] {
			if next == to {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

func containsEdge(edges []Edge, higherRoleID, lowerRoleID int64) bool {
	for _, e := range edges {
		if e.HigherRoleID == higherRoleID && e.LowerRoleID == lowerRoleID {
			return true
		}
	}
	return false
}

// buildForest assembles the display tree: roots are roles with no incoming
// edge, children follow outgoing edges. Children are ordered by role name
// using locale-aware collation so the forest renders stably.
func buildForest(edges []Edge, roleNames map[int64]string) []*TreeNode {
	hasIncoming := make(map[int64]bool, len(edges))
	children := make(map[int64][]Edge, len(edges))
	seen := make(map[int64]struct{})
	for _, e := range edges {
		hasIncoming[e.LowerRoleID] = true
		children[e.HigherRoleID] = append(children[e.HigherRoleID], e)
		seen[e.HigherRoleID] = struct{}{}
		seen[e.LowerRoleID] = struct{}{}
	}

	var rootIDs []int64
	for id := range seen {
		if !hasIncoming[id] {
			rootIDs = append(rootIDs, id)
		}
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	var build func(roleID int64, edgeID int64, path map[int64]struct{}) *TreeNode
	build = func(roleID int64, edgeID int64, path map[int64]struct{}) *TreeNode {
		node := &TreeNode{RoleID: roleID, RoleName: roleNames[roleID], EdgeID: edgeID}
		if _, onPath := path[roleID]; onPath {
			return node
		}
		path[roleID] = struct{}{}
		defer delete(path, roleID)
		for _, e := range children[roleID] {
			node.Children = append(node.Children, build(e.LowerRoleID, e.ID, path))
		}
		sortNodes(coll, node.Children)
		return node
	}

	forest := make([]*TreeNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		forest = append(forest, build(id, 0, make(map[int64]struct{})))
	}
	sortNodes(coll, forest)
	return forest
}

func sortNodes(coll *collate.Collator, nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if c := coll.CompareString(nodes[i].RoleName, nodes[j].RoleName); c != 0 {
			return c < 0
		}
		return nodes[i].RoleID < nodes[j].RoleID
	})
}
