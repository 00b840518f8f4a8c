package route

import (
	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// Segment is a maximal run of a path on a single floor.
type Segment struct {
	Floor int
	Nodes []building.Node
}

// IDs returns the node ids of the segment in traversal order.
func (s Segment) IDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// First returns the first node of the segment.
func (s Segment) First() building.Node {
	if len(s.Nodes) == 0 {
		return building.Node{}
	}
	return s.Nodes[0]
}

// Last returns the last node of the segment.
func (s Segment) Last() building.Node {
	if len(s.Nodes) == 0 {
		return building.Node{}
	}
	return s.Nodes[len(s.Nodes)-1]
}

// Points returns the floor-local positions of the segment's nodes.
func (s Segment) Points() []building.Point {
	pts := make([]building.Point, len(s.Nodes))
	for i, n := range s.Nodes {
		pts[i] = n.Pos
	}
	return pts
}

// Segments splits path into single-floor runs in traversal order. The node at
// which the floor changes opens the next segment; no node appears in two
// segments, so concatenating the segments' ids gives back path.
//
// An empty path yields no segments. An id missing from g is a NODE_NOT_FOUND
// error.
func Segments(path Path, g *building.Graph) ([]Segment, error) {
	if len(path) == 0 {
		return nil, nil
	}
	var (
		out []Segment
		cur *Segment
	)
	for _, id := range path {
		n, ok := g.Node(id)
		if !ok {
			return nil, errors.New(errors.ErrCodeNodeNotFound, "path node %q not in graph", id)
		}
		if cur == nil || n.Floor != cur.Floor {
			out = append(out, Segment{Floor: n.Floor})
			cur = &out[len(out)-1]
		}
		cur.Nodes = append(cur.Nodes, n)
	}
	return out, nil
}

// Floors returns the floor of each segment in order. A floor appears more than
// once when the route leaves and later returns to it.
func Floors(segs []Segment) []int {
	floors := make([]int, len(segs))
	for i, s := range segs {
		floors[i] = s.Floor
	}
	return floors
}
