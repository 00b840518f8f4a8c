// Package pkg provides the core libraries for Wayfinder indoor navigation.
//
// # Overview
//
// Wayfinder finds the shortest route through a building whose rooms,
// corridors and stairwells form an undirected graph spread over several
// floors, and animates that route floor by floor over the floor plans. The
// pkg directory is organized into these areas:
//
//  1. [building] - Building documents, graph assembly and hot reload
//  2. [route] - Floor-aware A* search, crossing policies, destination resolution
//  3. [render] - Per-floor surfaces, animated polylines, PNG and GIF output
//  4. [pipeline] - Orchestration (load → route → render) with caching
//  5. [cache], [store], [config], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through Wayfinder:
//
//	Building document (JSON / YAML / MongoDB)
//	         ↓
//	    [building] package (tolerant parse, symmetric adjacency)
//	         ↓
//	    [route] package (A* with floor penalty, split into per-floor segments)
//	         ↓
//	    [render] package (one surface per floor, segments animated in order)
//	         ↓
//	    PNG/GIF/JSON output
//
// # Quick Start
//
// Load a building, route and render the result:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/wayfinder/pkg/building"
//	    "github.com/matzehuels/wayfinder/pkg/route"
//	)
//
//	// 1. Load the building
//	g, _, err := building.Load("campus.json")
//
//	// 2. Search a route
//	r := route.NewRouter(route.WithFloorPenalty(route.DefaultFloorPenalty))
//	res, err := r.SearchContext(context.Background(), g, "entrance", "204")
//
//	// 3. Split it per floor for rendering
//	segs, err := route.Segments(res.Path, g)
//
// Most callers use [pipeline.Runner], which adds configuration, destination
// resolution, caching and artifact encoding on top of these steps.
//
// # Main Packages
//
// [building] - Graph of nodes with floor-local coordinates. Parsing accepts
// several key spellings and reports problems as diagnostics instead of
// failing, so partially broken documents still load.
//
// [route] - Router with a Euclidean heuristic and a fixed penalty per floor
// change. Interfloor policies gate which edges may cross floors.
//
// [render] - Renderer that draws one segment at a time onto the surface of
// its floor, driven by a frame clock so exports are deterministic.
//
// [pipeline] - Runner shared by the CLI and the HTTP server.
//
// [cache] - File, Redis and null caches for routes and rendered artifacts.
//
// [store] - MongoDB store for building documents.
package pkg
