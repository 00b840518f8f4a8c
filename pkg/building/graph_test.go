package building

import (
	"slices"
	"testing"
)

func spec(id string, floor int, x, y float64, nbs ...string) NodeSpec {
	return NodeSpec{Node: Node{ID: id, Floor: floor, Pos: Point{X: x, Y: y}}, Neighbors: nbs}
}

func assertSymmetric(t *testing.T, g *Graph) {
	t.Helper()
	for _, a := range g.IDs() {
		for _, b := range g.Neighbors(a) {
			if !g.HasEdge(b, a) {
				t.Errorf("edge %s->%s has no reverse", a, b)
			}
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name      string
		specs     []NodeSpec
		wantNodes int
		wantEdges int
		wantDiags int
		check     func(t *testing.T, g *Graph)
	}{
		{
			name:      "Empty",
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name: "OneDirectionalLinks",
			specs: []NodeSpec{
				spec("a", 1, 0, 0, "b"),
				spec("b", 1, 1, 0, "c"),
				spec("c", 1, 2, 0),
			},
			wantNodes: 3,
			wantEdges: 2,
			check: func(t *testing.T, g *Graph) {
				if !g.HasEdge("c", "b") || !g.HasEdge("b", "a") {
					t.Errorf("reverse links missing: b=%v c=%v", g.Neighbors("b"), g.Neighbors("c"))
				}
			},
		},
		{
			name: "DanglingReferencesDropped",
			specs: []NodeSpec{
				spec("a", 1, 0, 0, "ghost", "b"),
				spec("b", 1, 1, 0, "phantom"),
			},
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				for _, id := range g.IDs() {
					for _, nb := range g.Neighbors(id) {
						if !g.Has(nb) {
							t.Errorf("dangling neighbor %q of %q", nb, id)
						}
					}
				}
			},
		},
		{
			name: "SelfLoopsAndDuplicates",
			specs: []NodeSpec{
				spec("a", 1, 0, 0, "a", "b", "b", " b "),
				spec("b", 1, 1, 0, "a", "a"),
			},
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				if got := g.Neighbors("a"); !slices.Equal(got, []string{"b"}) {
					t.Errorf("Neighbors(a) = %v, want [b]", got)
				}
			},
		},
		{
			name: "DuplicateIDFirstWins",
			specs: []NodeSpec{
				spec("a", 1, 0, 0),
				spec("a", 2, 5, 5),
			},
			wantNodes: 1,
			wantDiags: 1,
			check: func(t *testing.T, g *Graph) {
				n, _ := g.Node("a")
				if n.Floor != 1 {
					t.Errorf("Floor = %d, want 1", n.Floor)
				}
			},
		},
		{
			name: "EmptyIDSkipped",
			specs: []NodeSpec{
				spec("  ", 1, 0, 0),
				spec("x", 1, 0, 0),
			},
			wantNodes: 1,
			wantDiags: 1,
		},
		{
			name: "NameDefaultsToID",
			specs: []NodeSpec{
				spec(" 101 ", 1, 0, 0),
			},
			wantNodes: 1,
			check: func(t *testing.T, g *Graph) {
				n, ok := g.Node("101")
				if !ok {
					t.Fatal("node 101 missing")
				}
				if n.Name != "101" {
					t.Errorf("Name = %q, want 101", n.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, diags := Assemble(tt.specs)
			if g.NodeCount() != tt.wantNodes {
				t.Errorf("NodeCount = %d, want %d", g.NodeCount(), tt.wantNodes)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
			if len(diags) != tt.wantDiags {
				t.Errorf("diagnostics = %v, want %d", diags, tt.wantDiags)
			}
			assertSymmetric(t, g)
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestSymmetrize(t *testing.T) {
	order := []string{"a", "b", "c"}
	adj := map[string][]string{
		"a": {"b", "c"},
		"b": nil,
		"c": {"a"},
	}

	added := symmetrize(order, adj)
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if !slices.Equal(adj["b"], []string{"a"}) {
		t.Errorf("adj[b] = %v, want [a]", adj["b"])
	}
	if !slices.Equal(adj["c"], []string{"a"}) {
		t.Errorf("adj[c] = %v, want [a] (no duplicate)", adj["c"])
	}

	if again := symmetrize(order, adj); again != 0 {
		t.Errorf("second pass added %d, want 0", again)
	}
}

func TestGraphAccessors(t *testing.T) {
	g, _ := Assemble([]NodeSpec{
		spec("lobby", 1, 0, 0, "hall"),
		spec("hall", 1, 10, 0, "east_stairs_1"),
		spec("east_stairs_1", 1, 20, 0, "east_stairs_2"),
		spec("east_stairs_2", 3, 20, 0, "204"),
		spec("204", 3, 30, 0),
	})

	if got := g.Floors(); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("Floors = %v, want [1 3]", got)
	}
	if got := len(g.NodesOnFloor(3)); got != 2 {
		t.Errorf("NodesOnFloor(3) = %d nodes, want 2", got)
	}
	if got := g.IDs(); got[0] != "lobby" || got[4] != "204" {
		t.Errorf("IDs not in load order: %v", got)
	}
	if _, ok := g.Node("missing"); ok {
		t.Error("Node(missing) reported ok")
	}

	var zero Graph
	if zero.NodeCount() != 0 || zero.Has("a") || len(zero.Floors()) != 0 {
		t.Error("zero Graph should behave as empty")
	}
}

func TestPointDist(t *testing.T) {
	if d := (Point{0, 0}).Dist(Point{3, 4}); d != 5 {
		t.Errorf("Dist = %v, want 5", d)
	}
}
