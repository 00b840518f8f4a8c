// Package route finds walking routes through a building graph.
//
// [Router] runs an A* search in which moving between floors costs the
// Euclidean distance plus a fixed floor penalty, and where a cross-floor edge
// may only be used when an [InterfloorFunc] accepts it. The heuristic is the
// plain Euclidean distance to the goal, which never overestimates.
//
// [Segments] splits a found path into maximal single-floor runs in traversal
// order, ready to be drawn one floor at a time by the render package.
//
// [LocalResolver] maps a free-text destination (an id, part of a room name or
// an alias category such as "toilet") to a node id.
//
//	r := route.NewRouter(route.WithFloorPenalty(5000))
//	res, err := r.Search(g, "entrance", "204")
//	if err != nil {
//	    // NODE_NOT_FOUND or PATH_NOT_FOUND coded error
//	}
//	segs, _ := route.Segments(res.Path, g)
package route
