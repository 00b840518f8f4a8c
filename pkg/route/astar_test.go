package route

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

func node(id string, floor int, x, y float64, nbs ...string) building.NodeSpec {
	return building.NodeSpec{
		Node:      building.Node{ID: id, Floor: floor, Pos: building.Point{X: x, Y: y}},
		Neighbors: nbs,
	}
}

func graph(t *testing.T, specs ...building.NodeSpec) *building.Graph {
	t.Helper()
	g, diags := building.Assemble(specs)
	if len(diags) != 0 {
		t.Fatalf("fixture diagnostics: %v", diags)
	}
	return g
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScenarioStraightLine(t *testing.T) {
	g := graph(t,
		node("start", 1, 0, 0, "A"),
		node("A", 1, 100, 0, "goal"),
		node("goal", 1, 200, 0),
	)
	res, err := NewRouter().Search(g, "start", "goal")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !slices.Equal(res.Path, Path{"start", "A", "goal"}) {
		t.Errorf("Path = %v", res.Path)
	}
	if !approx(res.Cost, 200) {
		t.Errorf("Cost = %v, want 200", res.Cost)
	}
	if res.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", res.Crossings)
	}
}

func TestScenarioStairPair(t *testing.T) {
	g := graph(t,
		node("start", 1, 0, 0, "up"),
		node("up", 1, 100, 0, "down"),
		node("down", 2, 100, 0, "goal"),
		node("goal", 2, 0, 0),
	)
	stairs := func(from, to building.Node) bool {
		return (from.ID == "up" && to.ID == "down") || (from.ID == "down" && to.ID == "up")
	}

	res, err := NewRouter(WithInterfloor(stairs)).Search(g, "start", "goal")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Crossings != 1 {
		t.Errorf("Crossings = %d, want 1", res.Crossings)
	}
	if !approx(res.Cost, 200+DefaultFloorPenalty) {
		t.Errorf("Cost = %v, want %v", res.Cost, 200+DefaultFloorPenalty)
	}

	segs, err := Segments(res.Path, g)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !slices.Equal(segs[0].IDs(), []string{"start", "up"}) || !slices.Equal(segs[1].IDs(), []string{"down", "goal"}) {
		t.Errorf("segments = %v / %v", segs[0].IDs(), segs[1].IDs())
	}
}

func TestScenarioMissingNode(t *testing.T) {
	g := graph(t, node("start", 1, 0, 0))

	tests := []struct {
		name, start, goal, endpoint string
	}{
		{"Goal", "start", "nowhere", EndpointGoal},
		{"Start", "nowhere", "start", EndpointStart},
		{"BothMissingReportsStart", "x", "y", EndpointStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter().Search(g, tt.start, tt.goal)
			if !errors.Is(err, errors.ErrCodeNodeNotFound) {
				t.Fatalf("err = %v, want NODE_NOT_FOUND", err)
			}
			var nf *NodeNotFoundError
			if !stderrors.As(err, &nf) {
				t.Fatalf("err does not wrap *NodeNotFoundError: %v", err)
			}
			if nf.Endpoint != tt.endpoint {
				t.Errorf("Endpoint = %q, want %q", nf.Endpoint, tt.endpoint)
			}
		})
	}
}

func TestScenarioDisconnected(t *testing.T) {
	g := graph(t,
		node("start", 1, 0, 0, "a"),
		node("a", 1, 10, 0),
		node("goal", 1, 20, 0, "b"),
		node("b", 1, 30, 0),
	)
	_, err := NewRouter().Search(g, "start", "goal")
	if !errors.Is(err, errors.ErrCodePathNotFound) {
		t.Fatalf("err = %v, want PATH_NOT_FOUND", err)
	}
	if !stderrors.Is(err, ErrNoPath) {
		t.Error("err should wrap ErrNoPath")
	}
}

func TestSearchSameNode(t *testing.T) {
	g := graph(t, node("a", 1, 5, 5))
	res, err := NewRouter().Search(g, " a ", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Path, Path{"a"}) || res.Cost != 0 {
		t.Errorf("got %v cost %v", res.Path, res.Cost)
	}
}

func TestInterfloorGating(t *testing.T) {
	// A direct cross-floor shortcut exists next to a proper stair pair.
	g := graph(t,
		node("start", 1, 0, 0, "shortcut_1", "east_stairs_1"),
		node("shortcut_1", 1, 10, 0, "shortcut_2"),
		node("shortcut_2", 2, 10, 0, "goal"),
		node("east_stairs_1", 1, 500, 0, "east_stairs_2"),
		node("east_stairs_2", 2, 500, 0, "goal"),
		node("goal", 2, 20, 0),
	)

	t.Run("DenyAll", func(t *testing.T) {
		_, err := NewRouter(WithInterfloor(DenyAllCrossings)).Search(g, "start", "goal")
		if !errors.Is(err, errors.ErrCodePathNotFound) {
			t.Fatalf("err = %v, want PATH_NOT_FOUND", err)
		}
	})

	t.Run("AllowAll", func(t *testing.T) {
		res, err := NewRouter(WithInterfloor(AllowAllCrossings)).Search(g, "start", "goal")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Contains(res.Path, "shortcut_2") {
			t.Errorf("Path = %v, want the shortcut", res.Path)
		}
	})

	t.Run("ConnectorPairs", func(t *testing.T) {
		// shortcut_1/shortcut_2 do not follow the connector naming.
		res, err := NewRouter().Search(g, "start", "goal")
		if err != nil {
			t.Fatal(err)
		}
		want := Path{"start", "east_stairs_1", "east_stairs_2", "goal"}
		if !slices.Equal(res.Path, want) {
			t.Errorf("Path = %v, want %v", res.Path, want)
		}
	})
}

func TestFloorPenaltyChargedPerCrossing(t *testing.T) {
	// Three floors stacked; the only route crosses twice.
	g := graph(t,
		node("a", 1, 0, 0, "s_stairs_1"),
		node("s_stairs_1", 1, 30, 40, "s_stairs_2"),
		node("s_stairs_2", 2, 30, 40, "s_stairs_3", "detour"),
		node("detour", 2, 300, 400, "s_stairs_3"),
		node("s_stairs_3", 3, 30, 40, "b"),
		node("b", 3, 0, 0),
	)

	for _, penalty := range []float64{0, 1, 200, DefaultFloorPenalty, 1e6} {
		t.Run(fmt.Sprint(penalty), func(t *testing.T) {
			res, err := NewRouter(WithFloorPenalty(penalty), WithInterfloor(AllowAllCrossings)).Search(g, "a", "b")
			if err != nil {
				t.Fatal(err)
			}
			if res.Crossings != 2 {
				t.Fatalf("Crossings = %d, want 2 (path %v)", res.Crossings, res.Path)
			}
			if want := 100 + 2*penalty; !approx(res.Cost, want) {
				t.Errorf("Cost = %v, want %v", res.Cost, want)
			}
			cost, crossings, err := PathCost(g, res.Path, penalty)
			if err != nil {
				t.Fatal(err)
			}
			if crossings != 2 || !approx(cost, res.Cost) {
				t.Errorf("PathCost = %v/%d, want %v/2", cost, crossings, res.Cost)
			}
		})
	}
}

func TestFloorPenaltyAvoidsNeedlessCrossings(t *testing.T) {
	// Same-floor corridor is long; a two-crossing detour is geometrically shorter.
	g := graph(t,
		node("a", 1, 0, 0, "b", "x_stairs_1"),
		node("b", 1, 1000, 0),
		node("x_stairs_1", 1, 0, 0, "x_stairs_2"),
		node("x_stairs_2", 2, 0, 0, "y_stairs_2"),
		node("y_stairs_2", 2, 1000, 0, "y_stairs_1"),
		node("y_stairs_1", 1, 1000, 0, "b"),
	)
	res, err := NewRouter().Search(g, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Path, Path{"a", "b"}) {
		t.Errorf("Path = %v, want direct corridor", res.Path)
	}

	res, err = NewRouter(WithFloorPenalty(0)).Search(g, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if res.Cost > 1000 {
		t.Errorf("Cost = %v, want <= 1000", res.Cost)
	}
}

func TestTiesPopInPushOrder(t *testing.T) {
	build := func(order ...string) *building.Graph {
		return graph(t,
			node("s", 1, 0, 0, order...),
			node("up", 1, 100, 50, "g"),
			node("down", 1, 100, -50, "g"),
			node("g", 1, 200, 0),
		)
	}

	res, err := NewRouter().Search(build("up", "down"), "s", "g")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path[1] != "up" {
		t.Errorf("Path = %v, want via up", res.Path)
	}

	res, err = NewRouter().Search(build("down", "up"), "s", "g")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path[1] != "down" {
		t.Errorf("Path = %v, want via down", res.Path)
	}
}

// exhaustive returns the cheapest simple-path cost from start to goal by
// enumerating every simple path.
func exhaustive(g *building.Graph, start, goal string, penalty float64, allow InterfloorFunc) (float64, bool) {
	best := math.Inf(1)
	visited := map[string]bool{start: true}
	var walk func(id string, cost float64)
	walk = func(id string, cost float64) {
		if cost >= best {
			return
		}
		if id == goal {
			best = cost
			return
		}
		cur, _ := g.Node(id)
		for _, nb := range g.Neighbors(id) {
			if visited[nb] {
				continue
			}
			n, _ := g.Node(nb)
			step := cur.Pos.Dist(n.Pos)
			if n.Floor != cur.Floor {
				if !allow(cur, n) {
					continue
				}
				step += penalty
			}
			visited[nb] = true
			walk(nb, cost+step)
			visited[nb] = false
		}
	}
	walk(start, 0)
	return best, !math.IsInf(best, 1)
}

func randomGraph(rng *rand.Rand, n int) *building.Graph {
	specs := make([]building.NodeSpec, n)
	for i := range specs {
		specs[i] = node(fmt.Sprint(i), 1+rng.IntN(3), float64(rng.IntN(2000)), float64(rng.IntN(1500)))
	}
	for i := range specs {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < 0.25 {
				specs[i].Neighbors = append(specs[i].Neighbors, fmt.Sprint(j))
			}
		}
	}
	g, _ := building.Assemble(specs)
	return g
}

func TestOptimalityAgainstExhaustiveSearch(t *testing.T) {
	oddFloorsOnly := func(from, to building.Node) bool { return from.Floor%2 == 1 && to.Floor%2 == 1 }
	policies := map[string]InterfloorFunc{
		"any":  AllowAllCrossings,
		"none": DenyAllCrossings,
		"odd":  oddFloorsOnly,
	}

	for seed := uint64(1); seed <= 40; seed++ {
		rng := rand.New(rand.NewPCG(seed, 2*seed+1))
		n := 4 + rng.IntN(9) // 4..12 nodes keeps simple-path enumeration cheap
		g := randomGraph(rng, n)
		penalty := float64(rng.IntN(800))

		for name, policy := range policies {
			r := NewRouter(WithFloorPenalty(penalty), WithInterfloor(policy))
			for _, goal := range []string{fmt.Sprint(n - 1), fmt.Sprint(n / 2)} {
				want, reachable := exhaustive(g, "0", goal, penalty, policy)
				res, err := r.Search(g, "0", goal)
				if !reachable {
					if !errors.Is(err, errors.ErrCodePathNotFound) {
						t.Errorf("seed %d %s 0->%s: err = %v, want PATH_NOT_FOUND", seed, name, goal, err)
					}
					continue
				}
				if err != nil {
					t.Errorf("seed %d %s 0->%s: %v", seed, name, goal, err)
					continue
				}
				if math.Abs(res.Cost-want) > 1e-6 {
					t.Errorf("seed %d %s 0->%s: cost %v, exhaustive %v", seed, name, goal, res.Cost, want)
				}
				if cost, _, err := PathCost(g, res.Path, penalty); err != nil || math.Abs(cost-res.Cost) > 1e-6 {
					t.Errorf("seed %d %s: PathCost = %v (%v), Result.Cost = %v", seed, name, cost, err, res.Cost)
				}
			}
		}
	}
}

func TestPathCostErrors(t *testing.T) {
	g := graph(t, node("a", 1, 0, 0, "b"), node("b", 1, 3, 4), node("c", 1, 0, 0))

	if _, _, err := PathCost(g, Path{"a", "zzz"}, 0); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node: %v", err)
	}
	if _, _, err := PathCost(g, Path{"a", "c"}, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("non-edge: %v", err)
	}
	if cost, _, err := PathCost(g, Path{"a", "b"}, 0); err != nil || cost != 5 {
		t.Errorf("PathCost = %v, %v", cost, err)
	}
}

func TestRouterOptions(t *testing.T) {
	r := NewRouter()
	if r.FloorPenalty() != DefaultFloorPenalty {
		t.Errorf("default penalty = %v", r.FloorPenalty())
	}
	if NewRouter(WithFloorPenalty(-3)).FloorPenalty() != 0 {
		t.Error("negative penalty should clamp to 0")
	}
	// nil predicate keeps the default
	g := graph(t,
		node("a_stairs_1", 1, 0, 0, "a_stairs_2"),
		node("a_stairs_2", 2, 0, 0),
	)
	if _, err := NewRouter(WithInterfloor(nil), WithLogger(nil)).Search(g, "a_stairs_1", "a_stairs_2"); err != nil {
		t.Errorf("Search: %v", err)
	}
}
