package building

import (
	"math"
	"slices"
	"strings"
)

// Point is a floor-local position in reference units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Node is a point of interest or junction in the building.
type Node struct {
	ID    string // Unique, trimmed identifier
	Name  string // Display name; defaults to ID
	Pos   Point  // Floor-local coordinates
	Floor int    // Floor index as written in the source document
}

// NodeSpec is a typed node record together with its declared neighbor ids.
// It is the input to [Assemble]; neighbor links may be one-directional.
type NodeSpec struct {
	Node
	Neighbors []string
}

// Graph is an undirected building graph.
//
// The zero value is an empty graph. Graphs are created by [Build] or
// [Assemble] and are read-only afterwards.
type Graph struct {
	nodes map[string]*Node
	order []string            // node ids in load order
	adj   map[string][]string // id -> neighbor ids, set semantics
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string][]string),
	}
}

// Assemble builds a Graph from typed node records.
//
// IDs are trimmed; records with an empty id or a repeated id are skipped and
// reported. Neighbor lists are de-duplicated, self loops are dropped and ids
// that do not name a loaded node are filtered out silently. Finally every link
// a→b gains its reverse b→a.
func Assemble(specs []NodeSpec) (*Graph, Diagnostics) {
	g := newGraph()
	var diags Diagnostics

	kept := make([]NodeSpec, 0, len(specs))
	for _, s := range specs {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			diags = diags.add(codeMalformed, "node without id on floor %d skipped", s.Floor)
			continue
		}
		if _, dup := g.nodes[id]; dup {
			diags = diags.add(codeMalformed, "duplicate node id %q on floor %d ignored", id, s.Floor)
			continue
		}
		n := s.Node
		n.ID = id
		if strings.TrimSpace(n.Name) == "" {
			n.Name = id
		}
		g.nodes[id] = &n
		g.order = append(g.order, id)
		g.adj[id] = nil
		s.ID = id
		kept = append(kept, s)
	}

	for _, s := range kept {
		for _, raw := range s.Neighbors {
			nb := strings.TrimSpace(raw)
			if nb == s.ID {
				continue
			}
			if _, ok := g.nodes[nb]; !ok {
				continue
			}
			g.link(s.ID, nb)
		}
	}

	symmetrize(g.order, g.adj)
	return g, diags
}

// link records a→b once.
func (g *Graph) link(a, b string) {
	if !slices.Contains(g.adj[a], b) {
		g.adj[a] = append(g.adj[a], b)
	}
}

// symmetrize adds the reverse of every link in adj and returns how many
// reverse links were missing. Iteration follows order so the resulting
// neighbor lists are deterministic.
func symmetrize(order []string, adj map[string][]string) int {
	added := 0
	for _, a := range order {
		for _, b := range adj[a] {
			if _, ok := adj[b]; !ok {
				continue
			}
			if !slices.Contains(adj[b], a) {
				adj[b] = append(adj[b], a)
				added++
			}
		}
	}
	return added
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil || g.nodes == nil {
		return Node{}, false
	}
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether id names a node of g.
func (g *Graph) Has(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// Neighbors returns the ids adjacent to id in declaration order.
// The returned slice is a read-only view and must not be modified.
func (g *Graph) Neighbors(id string) []string {
	if g == nil {
		return nil
	}
	return g.adj[id]
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	return slices.Contains(g.Neighbors(a), b)
}

// Nodes returns all nodes in load order.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.nodes[id])
	}
	return out
}

// IDs returns all node ids in load order.
func (g *Graph) IDs() []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.order)
}

// NodesOnFloor returns the nodes of one floor in load order.
func (g *Graph) NodesOnFloor(floor int) []Node {
	var out []Node
	for _, n := range g.Nodes() {
		if n.Floor == floor {
			out = append(out, n)
		}
	}
	return out
}

// Floors returns the distinct floor indices in ascending order.
func (g *Graph) Floors() []int {
	var floors []int
	for _, n := range g.Nodes() {
		if !slices.Contains(floors, n.Floor) {
			floors = append(floors, n.Floor)
		}
	}
	slices.Sort(floors)
	return floors
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, nbs := range g.adj {
		n += len(nbs)
	}
	return n / 2
}
