package route

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// ErrUnresolved is wrapped by the NODE_NOT_FOUND error returned when a query
// matches no node.
var ErrUnresolved = stderrors.New("query matches no node")

// Resolver turns a free-text destination into a node id. Only the id leaves
// the resolver; callers never route on the raw text.
type Resolver interface {
	Resolve(ctx context.Context, query string) (string, error)
}

// LocalResolver resolves queries against a graph without any remote service.
//
// Queries are tried in this order:
//  1. exact node id (after trimming)
//  2. alias category: a category name contained in the query, for example
//     "toilet" in "where is the nearest toilet"
//  3. case-insensitive substring of a node name
//
// When several nodes match and an origin is set, the one with the cheapest
// route from the origin wins; otherwise the first match in load order.
type LocalResolver struct {
	graph   *building.Graph
	aliases map[string][]string
	router  *Router
	origin  string
}

// ResolverOption configures a LocalResolver.
type ResolverOption func(*LocalResolver)

// WithAliases sets alias categories mapping a lower-case keyword to candidate
// node ids.
func WithAliases(aliases map[string][]string) ResolverOption {
	return func(lr *LocalResolver) {
		lr.aliases = make(map[string][]string, len(aliases))
		for k, ids := range aliases {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				lr.aliases[k] = ids
			}
		}
	}
}

// WithOrigin makes ambiguous queries pick the candidate nearest to from,
// measured with r.
func WithOrigin(from string, r *Router) ResolverOption {
	return func(lr *LocalResolver) {
		lr.origin = strings.TrimSpace(from)
		if r != nil {
			lr.router = r
		}
	}
}

// NewLocalResolver returns a resolver over g.
func NewLocalResolver(g *building.Graph, opts ...ResolverOption) *LocalResolver {
	lr := &LocalResolver{graph: g, router: NewRouter()}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Resolve implements [Resolver].
func (lr *LocalResolver) Resolve(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if err := errors.ValidateQuery(q); err != nil {
		return "", err
	}
	if lr.graph.Has(q) {
		return q, nil
	}

	lower := strings.ToLower(q)
	if ids := lr.aliasCandidates(lower); len(ids) > 0 {
		return lr.pick(ctx, ids)
	}

	var byName []string
	for _, n := range lr.graph.Nodes() {
		if strings.Contains(strings.ToLower(n.Name), lower) {
			byName = append(byName, n.ID)
		}
	}
	if len(byName) > 0 {
		return lr.pick(ctx, byName)
	}
	return "", errors.Wrap(errors.ErrCodeNodeNotFound, ErrUnresolved, "%q", q)
}

// Candidates returns every node id the query could refer to, in load order.
func (lr *LocalResolver) Candidates(query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	if lr.graph.Has(q) {
		return []string{q}
	}
	lower := strings.ToLower(q)
	if ids := lr.aliasCandidates(lower); len(ids) > 0 {
		return ids
	}
	var out []string
	for _, n := range lr.graph.Nodes() {
		if strings.Contains(strings.ToLower(n.Name), lower) {
			out = append(out, n.ID)
		}
	}
	return out
}

func (lr *LocalResolver) aliasCandidates(lowerQuery string) []string {
	var out []string
	for keyword, ids := range lr.aliases {
		if !strings.Contains(lowerQuery, keyword) {
			continue
		}
		for _, id := range ids {
			if lr.graph.Has(id) && !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	// Map iteration order is random; restore load order.
	return lr.inLoadOrder(out)
}

func (lr *LocalResolver) inLoadOrder(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range lr.graph.IDs() {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}

func (lr *LocalResolver) pick(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 1 || lr.origin == "" || !lr.graph.Has(lr.origin) {
		return ids[0], nil
	}
	id, _, err := Nearest(ctx, lr.router, lr.graph, lr.origin, ids)
	if err != nil {
		// Nothing reachable: fall back to the first match so the caller gets
		// a PATH_NOT_FOUND when routing to it.
		return ids[0], nil
	}
	return id, nil
}

// Nearest routes from start to every candidate and returns the one with the
// lowest cost together with its result. Ties keep candidate order.
// Unreachable candidates are skipped; if none is reachable the error is
// PATH_NOT_FOUND.
func Nearest(ctx context.Context, r *Router, g *building.Graph, start string, candidates []string) (string, *Result, error) {
	var (
		bestID  string
		best    *Result
		lastErr error
	)
	for _, id := range candidates {
		res, err := r.SearchContext(ctx, g, start, id)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || res.Cost < best.Cost {
			bestID, best = id, res
		}
	}
	if best == nil {
		if lastErr != nil && !errors.Is(lastErr, errors.ErrCodePathNotFound) {
			return "", nil, lastErr
		}
		return "", nil, errors.Wrap(errors.ErrCodePathNotFound, ErrNoPath, "no candidate reachable from %s", start)
	}
	return bestID, best, nil
}
