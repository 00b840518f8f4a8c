// Package pipeline provides the route pipeline shared by the CLI and the
// HTTP server.
//
// This package implements the complete load → route → render pipeline. By
// centralizing it, every entry point resolves destinations, caches routes
// and draws artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the building document named in the configuration and build
//     the graph, then resolve the destination query to a node id
//  2. Route: floor-aware A* search, cached by building hash and routing options
//  3. Render: per-floor PNGs, an animated GIF, the route as JSON, or a
//     Graphviz SVG of the building with the route highlighted
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, cache, nil, logger)
//	result, err := runner.Execute(ctx, nil, pipeline.Options{
//	    From:    "entrance",
//	    To:      "nearest toilet",
//	    Formats: []string{"png", "gif"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gif := result.Artifacts[pipeline.ArtifactGIF]
//
// Run individual stages:
//
//	g, err := runner.LoadBuilding(ctx)
//	rt, err := runner.Route(ctx, g, "entrance", "204", false)
//	artifacts, err := runner.Render(ctx, g, rt, opts)
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFPS is the frame rate of exported GIF animations.
	DefaultFPS = 15

	// DefaultHold is how long the finished drawing of each segment stays on
	// screen in a GIF before the next floor starts.
	DefaultHold = time.Second
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatJSON = "json"
	FormatSVG  = "svg"
)

// Artifact names for formats that produce one file per route.
const (
	ArtifactGIF  = "route.gif"
	ArtifactJSON = "route.json"
	ArtifactSVG  = "graph.svg"
)

// FloorArtifact is the artifact name of the PNG of one floor.
func FloorArtifact(floor int) string {
	return "floor-" + strconv.Itoa(floor) + ".png"
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatGIF:  true,
	FormatJSON: true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the per-request settings of a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	From      string   `json:"from"`
	To        string   `json:"to"` // node id or free-text destination
	Formats   []string `json:"formats,omitempty"`
	FPS       int      `json:"fps,omitempty"`
	ShowNodes bool     `json:"show_nodes,omitempty"` // debug dots for every node on drawn floors
	Refresh   bool     `json:"refresh,omitempty"`    // bypass the route and artifact caches

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Route is a computed route, as cached and as written to route.json.
type Route struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Path      route.Path     `json:"path"`
	Cost      float64        `json:"cost"`
	Crossings int            `json:"crossings"`
	Expanded  int            `json:"expanded"`
	Floors    []int          `json:"floors"`
	Segments  []SegmentEntry `json:"segments"`
}

// SegmentEntry is one per-floor run of a Route.
type SegmentEntry struct {
	Floor int      `json:"floor"`
	Nodes []string `json:"nodes"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// BuildingHash is the content hash of the canonical building document.
	BuildingHash string

	// Route is the computed route.
	Route *Route

	// Artifacts contains rendered outputs keyed by artifact name
	// (see FloorArtifact, ArtifactGIF, ArtifactJSON and ArtifactSVG).
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	RouteTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool // Whether the route came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, gif, json, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForRoute(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForRoute checks the endpoints.
func (o *Options) ValidateForRoute() error {
	if err := errors.ValidateNodeID(o.From); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := errors.ValidateQuery(o.To); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// FrameStep is the animation clock step for GIF export.
func (o *Options) FrameStep() time.Duration {
	fps := o.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
