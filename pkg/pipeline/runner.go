package pipeline

import (
	"context"
	"fmt"
	"image"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/observability"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, logger and loaded floor
// plans - it doesn't store pipeline results. Multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Config config.Config

	bgMu        sync.Mutex
	backgrounds map[int]image.Image
}

// NewRunner creates a runner with the given configuration, cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used and nothing is cached.
func NewRunner(cfg config.Config, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if !cache.Enabled(c) {
		logger.Debug("caching disabled, routes and renders are recomputed")
	}
	return &Runner{
		Cache:       c,
		Keyer:       keyer,
		Logger:      logger,
		Config:      cfg,
		backgrounds: make(map[int]image.Image),
	}
}

// Execute runs the complete load → route → render pipeline with caching.
// A nil g loads the building named in the configuration. An empty
// opts.From falls back to the configured start node.
func (r *Runner) Execute(ctx context.Context, g *building.Graph, opts Options) (res *Result, err error) {
	if opts.From == "" {
		opts.From = r.Config.Start
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	name := r.Config.Building
	hooks := observability.Route()
	hooks.OnPipelineStart(ctx, name)
	began := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Artifacts)
		}
		hooks.OnPipelineComplete(ctx, name, n, time.Since(began), err)
	}()

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	if g == nil {
		if g, err = r.LoadBuilding(ctx); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}
	result.BuildingHash = BuildingHash(g)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	goal, err := r.Resolve(ctx, g, opts.From, opts.To)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded building",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"to", goal,
		"duration", result.Stats.LoadTime)

	// Stage 2: Route
	routeStart := time.Now()
	rt, routeHit, err := r.RouteWithCacheInfo(ctx, g, opts.From, goal, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Route = rt
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = routeHit

	r.Logger.Info("computed route",
		"hops", len(rt.Path)-1,
		"floors", rt.Floors,
		"cost", rt.Cost,
		"duration", result.Stats.RouteTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, rt, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"artifacts", len(artifacts),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Router returns a router configured from the routing section.
func (r *Runner) Router() (*route.Router, error) {
	opts, err := r.Config.RouterOptions()
	if err != nil {
		return nil, err
	}
	return route.NewRouter(append(opts, route.WithLogger(r.Logger))...), nil
}

// Resolve turns a destination query into a node id. Ambiguous queries pick
// the candidate with the cheapest route from from.
func (r *Runner) Resolve(ctx context.Context, g *building.Graph, from, query string) (string, error) {
	router, err := r.Router()
	if err != nil {
		return "", err
	}
	res := route.NewLocalResolver(g,
		route.WithAliases(r.Config.Aliases),
		route.WithOrigin(from, router))
	return res.Resolve(ctx, query)
}

// RouteWithCacheInfo searches a route with caching and returns cache hit info.
// from and to must be node ids.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, g *building.Graph, from, to string, refresh bool) (*Route, bool, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	cacheKey := r.Keyer.RouteKey(BuildingHash(g), from, to, r.routeKeyOpts())

	// Try cache first (unless refresh requested)
	if !refresh {
		var cached Route
		if err := cache.GetJSON(ctx, r.Cache, cache.KeyTypeRoute, cacheKey, &cached); err == nil {
			return &cached, true, nil // Cache hit
		}
	}

	router, err := r.Router()
	if err != nil {
		return nil, false, err
	}
	res, err := router.SearchContext(ctx, g, from, to)
	if err != nil {
		return nil, false, err
	}
	rt, err := newRoute(g, from, to, res)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if err := cache.SetJSON(ctx, r.Cache, cache.KeyTypeRoute, cacheKey, rt, r.ttl(cache.TTLRoute)); err != nil {
		r.Logger.Warn("cache route", "err", err)
	}
	return rt, false, nil // Cache miss
}

// Route is a convenience wrapper that calls RouteWithCacheInfo and discards the cache hit info.
func (r *Runner) Route(ctx context.Context, g *building.Graph, from, to string, refresh bool) (*Route, error) {
	rt, _, err := r.RouteWithCacheInfo(ctx, g, from, to, refresh)
	return rt, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *building.Graph, rt *Route, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	routeHash := cache.HashJSON(rt)
	names := artifactNames(rt, opts.Formats)

	// Try to get all artifacts from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(names))
		for name, key := range r.artifactKeys(routeHash, names, opts) {
			data, err := cache.GetBytes(ctx, r.Cache, cache.KeyTypeArtifact, key)
			if err != nil {
				break
			}
			artifacts[name] = data
		}
		if len(artifacts) == len(names) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	rendered, err := r.renderArtifacts(ctx, g, rt, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each artifact
	for name, key := range r.artifactKeys(routeHash, names, opts) {
		if data, ok := rendered[name]; ok {
			_ = cache.SetBytes(ctx, r.Cache, cache.KeyTypeArtifact, key, data, r.ttl(cache.TTLArtifact))
		}
	}
	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *building.Graph, rt *Route, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, rt, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) routeKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		FloorPenalty: r.Config.Routing.FloorPenalty,
		Interfloor:   r.Config.InterfloorKey(),
		Kinds:        r.Config.Routing.ConnectorKinds,
	}
}

func (r *Runner) artifactKeys(routeHash string, names map[string]int, opts Options) map[string]string {
	styleHash := cache.HashJSON(struct {
		Style     config.Style
		Floors    []config.Floor
		Surface   config.Surface
		FPS       int
		ShowNodes bool
	}{r.Config.Style, r.Config.Floors, r.Config.Surface, opts.FPS, opts.ShowNodes})

	keys := make(map[string]string, len(names))
	for name, floor := range names {
		keys[name] = r.Keyer.ArtifactKey(routeHash, cache.ArtifactKeyOpts{
			Format:    name,
			Floor:     floor,
			Width:     r.Config.Surface.Width,
			Height:    r.Config.Surface.Height,
			StyleHash: styleHash,
		})
	}
	return keys
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.Config.Cache.TTL.Duration > 0 {
		return r.Config.Cache.TTL.Duration
	}
	return def
}

// artifactNames maps every artifact the formats produce to its floor
// (zero for whole-route artifacts).
func artifactNames(rt *Route, formats []string) map[string]int {
	names := make(map[string]int)
	for _, f := range formats {
		switch f {
		case FormatPNG:
			for _, floor := range rt.Floors {
				names[FloorArtifact(floor)] = floor
			}
		case FormatGIF:
			names[ArtifactGIF] = 0
		case FormatJSON:
			names[ArtifactJSON] = 0
		case FormatSVG:
			names[ArtifactSVG] = 0
		}
	}
	return names
}

func newRoute(g *building.Graph, from, to string, res *route.Result) (*Route, error) {
	segs, err := route.Segments(res.Path, g)
	if err != nil {
		return nil, err
	}
	rt := &Route{
		From:      from,
		To:        to,
		Path:      slices.Clone(res.Path),
		Cost:      res.Cost,
		Crossings: res.Crossings,
		Expanded:  res.Expanded,
		Floors:    route.Floors(segs),
	}
	for _, s := range segs {
		rt.Segments = append(rt.Segments, SegmentEntry{Floor: s.Floor, Nodes: s.IDs()})
	}
	return rt, nil
}
