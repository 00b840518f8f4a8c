// Package building turns loosely structured building descriptions into an
// immutable, queryable spatial graph.
//
// # Overview
//
// A building is a list of floors; each floor carries a floor index and a list
// of node records. A node has an id, an optional display name, a floor-local
// coordinate pair and a list of neighbor ids. Coordinates are in the floor's
// own reference units, not pixels; the render package maps them onto images.
//
// Raw documents come from hand-edited JSON or YAML files and are rarely tidy.
// [Build] therefore accepts several spellings for each concept (English,
// Ukrainian and transliterated keys), coerces ids to trimmed strings so that
// 7, 7.0 and "7" name the same node, and defaults missing coordinates to the
// origin and missing neighbor lists to empty.
//
// # Tolerance
//
// Build never fails. A document without a floor list yields an empty but valid
// [Graph] plus a MALFORMED_INPUT [Diagnostic]. Neighbor ids that do not resolve
// to a known node are dropped silently; self loops and duplicate entries are
// removed.
//
// # Symmetry
//
// Raw data often lists a corridor link on one side only. After nodes are
// loaded, [Assemble] runs an explicit symmetrization pass so that
// b ∈ Neighbors(a) ⇔ a ∈ Neighbors(b) holds for every pair.
//
// # Basic Usage
//
//	g, diags, err := building.Load("building.json")
//	if err != nil {
//	    return err // unreadable file or invalid JSON/YAML syntax
//	}
//	for _, d := range diags {
//	    logger.Warn(d.Message, "code", d.Code)
//	}
//	fmt.Println(g.NodeCount(), "nodes on floors", g.Floors())
//
// # Concurrency
//
// A Graph is never modified after Build or Assemble returns, so any number of
// goroutines may read it. Reloading a building produces a new Graph; see
// [Watcher].
package building
