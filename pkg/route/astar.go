package route

import (
	"container/heap"
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/observability"
)

// DefaultFloorPenalty is added to the cost of every edge that changes floor.
// It exceeds the diagonal of a typical floor extent so that the search only
// changes floors when it has to.
const DefaultFloorPenalty = 5000.0

// ErrNoPath is wrapped by the PATH_NOT_FOUND error returned when the goal
// cannot be reached.
var ErrNoPath = stderrors.New("no path between start and goal")

// Endpoint names used in [NodeNotFoundError].
const (
	EndpointStart = "start"
	EndpointGoal  = "goal"
)

// NodeNotFoundError reports which search endpoint is missing from the graph.
type NodeNotFoundError struct {
	Endpoint string // EndpointStart or EndpointGoal
	ID       string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("%s node %q not in graph", e.Endpoint, e.ID)
}

// Path is an ordered list of node ids from start to goal inclusive.
type Path []string

// Result is a successful search.
type Result struct {
	Path      Path
	Cost      float64 // total edge cost including floor penalties
	Crossings int     // number of floor changes along Path
	Expanded  int     // nodes popped from the frontier
}

// Router runs floor-aware A* searches. A Router holds only configuration and
// may be shared between goroutines.
type Router struct {
	penalty    float64
	interfloor InterfloorFunc
	logger     *log.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithFloorPenalty sets the cost added to every cross-floor edge.
// Negative values are treated as zero.
func WithFloorPenalty(p float64) Option {
	return func(r *Router) { r.penalty = max(p, 0) }
}

// WithInterfloor sets the cross-floor validity predicate.
// The default is [ConnectorPairs] with [DefaultConnectorKinds].
func WithInterfloor(fn InterfloorFunc) Option {
	return func(r *Router) {
		if fn != nil {
			r.interfloor = fn
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter returns a Router with the given options applied.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		penalty:    DefaultFloorPenalty,
		interfloor: ConnectorPairs(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FloorPenalty returns the configured floor penalty.
func (r *Router) FloorPenalty() float64 { return r.penalty }

// Search finds a cheapest path from startID to goalID. See [Router.SearchContext].
func (r *Router) Search(g *building.Graph, startID, goalID string) (*Result, error) {
	return r.SearchContext(context.Background(), g, startID, goalID)
}

// SearchContext finds a cheapest path from startID to goalID.
//
// IDs are trimmed before lookup. If either endpoint is missing the search is
// not run and a NODE_NOT_FOUND error wrapping a *[NodeNotFoundError] is
// returned; the start is checked first. If the goal is unreachable the error
// is PATH_NOT_FOUND wrapping [ErrNoPath].
//
// The search itself is synchronous; ctx only carries request values to the
// observability hooks.
func (r *Router) SearchContext(ctx context.Context, g *building.Graph, startID, goalID string) (*Result, error) {
	startID, goalID = strings.TrimSpace(startID), strings.TrimSpace(goalID)

	if !g.Has(startID) {
		return nil, errors.Wrap(errors.ErrCodeNodeNotFound,
			&NodeNotFoundError{Endpoint: EndpointStart, ID: startID}, "cannot route")
	}
	goal, ok := g.Node(goalID)
	if !ok {
		return nil, errors.Wrap(errors.ErrCodeNodeNotFound,
			&NodeNotFoundError{Endpoint: EndpointGoal, ID: goalID}, "cannot route")
	}

	hooks := observability.Route()
	hooks.OnSearchStart(ctx, startID, goalID)
	began := time.Now()

	res, err := r.astar(g, startID, goal)

	expanded := 0
	if res != nil {
		expanded = res.Expanded
	}
	hooks.OnSearchComplete(ctx, startID, goalID, expanded, time.Since(began), err)
	if err != nil {
		r.logger.Debug("no route", "from", startID, "to", goalID)
		return nil, err
	}
	r.logger.Debug("route found",
		"from", startID, "to", goalID,
		"hops", len(res.Path)-1, "cost", res.Cost,
		"crossings", res.Crossings, "expanded", res.Expanded)
	return res, nil
}

func (r *Router) astar(g *building.Graph, startID string, goal building.Node) (*Result, error) {
	if startID == goal.ID {
		return &Result{Path: Path{startID}}, nil
	}

	gScore := map[string]float64{startID: 0}
	cameFrom := make(map[string]string)
	closed := make(map[string]bool)

	start, _ := g.Node(startID)
	var open frontier
	open.push(startID, 0, start.Pos.Dist(goal.Pos))

	expanded := 0
	for open.Len() > 0 {
		it := heap.Pop(&open).(*item)
		if closed[it.id] || it.g > gScore[it.id] {
			continue
		}
		closed[it.id] = true
		expanded++

		if it.id == goal.ID {
			path := reconstruct(cameFrom, startID, goal.ID)
			return &Result{Path: path, Cost: it.g, Crossings: countCrossings(g, path), Expanded: expanded}, nil
		}

		cur, _ := g.Node(it.id)
		for _, nbID := range g.Neighbors(it.id) {
			if closed[nbID] {
				continue
			}
			nb, _ := g.Node(nbID)
			step := cur.Pos.Dist(nb.Pos)
			if nb.Floor != cur.Floor {
				if !r.interfloor(cur, nb) {
					continue
				}
				step += r.penalty
			}
			tentative := it.g + step
			if best, seen := gScore[nbID]; seen && tentative >= best {
				continue
			}
			gScore[nbID] = tentative
			cameFrom[nbID] = it.id
			open.push(nbID, tentative, tentative+nb.Pos.Dist(goal.Pos))
		}
	}
	return &Result{Expanded: expanded}, errors.Wrap(errors.ErrCodePathNotFound, ErrNoPath,
		"%s to %s", startID, goal.ID)
}

func reconstruct(cameFrom map[string]string, start, goal string) Path {
	path := Path{goal}
	for cur := goal; cur != start; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

func countCrossings(g *building.Graph, path Path) int {
	n := 0
	for i := 1; i < len(path); i++ {
		a, _ := g.Node(path[i-1])
		b, _ := g.Node(path[i])
		if a.Floor != b.Floor {
			n++
		}
	}
	return n
}

// PathCost recomputes the cost of path under the given floor penalty and
// returns it with the number of floor changes. Each cross-floor edge is
// charged the penalty exactly once. Consecutive ids must be adjacent.
func PathCost(g *building.Graph, path Path, penalty float64) (float64, int, error) {
	var (
		cost      float64
		crossings int
	)
	for i, id := range path {
		if !g.Has(id) {
			return 0, 0, errors.New(errors.ErrCodeNodeNotFound, "path node %q not in graph", id)
		}
		if i == 0 {
			continue
		}
		prev := path[i-1]
		if !g.HasEdge(prev, id) {
			return 0, 0, errors.New(errors.ErrCodeInvalidInput, "path step %s -> %s is not an edge", prev, id)
		}
		a, _ := g.Node(prev)
		b, _ := g.Node(id)
		cost += a.Pos.Dist(b.Pos)
		if a.Floor != b.Floor {
			cost += penalty
			crossings++
		}
	}
	return cost, crossings, nil
}

// item is a frontier entry. seq breaks ties between equal f values so that
// entries pushed earlier are popped first.
type item struct {
	id  string
	g   float64
	f   float64
	seq int
}

// frontier is a min-heap of items ordered by f, then seq. Relaxing a node
// pushes a new entry; outdated entries are skipped when popped.
type frontier struct {
	items []*item
	next  int
}

func (q *frontier) push(id string, g, f float64) {
	heap.Push(q, &item{id: id, g: g, f: f, seq: q.next})
	q.next++
}

func (q frontier) Len() int { return len(q.items) }

func (q frontier) Less(i, j int) bool {
	if q.items[i].f != q.items[j].f {
		return q.items[i].f < q.items[j].f
	}
	return q.items[i].seq < q.items[j].seq
}

func (q frontier) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *frontier) Push(x any) { q.items = append(q.items, x.(*item)) }

func (q *frontier) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return it
}
