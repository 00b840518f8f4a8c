// Package config loads the wayfinder TOML configuration.
//
// A configuration names the building file, the default start node, routing
// policy, drawing style, one entry per floor plan, alias categories for
// destination queries, and the cache, server and store backends:
//
//	building = "campus.json"
//	start    = "entrance"
//
//	[routing]
//	floor_penalty = 5000
//	interfloor    = "connectors"
//
//	[[floors]]
//	number     = 1
//	background = "floors/1.svg"
//
//	[aliases]
//	toilet = ["wc_1", "wc_2"]
//
// Every field is optional. [Load] starts from [Default] and overlays the
// file, so a missing key keeps its default. Relative paths are resolved
// against the directory of the configuration file.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/render"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Default values.
const (
	DefaultSurfaceWidth  = 1000
	DefaultSurfaceHeight = 750

	// DefaultExtentWidth and DefaultExtentHeight are the reference extent
	// node coordinates are expressed in when a floor does not set its own.
	DefaultExtentWidth  = 2000.0
	DefaultExtentHeight = 1500.0

	DefaultServerAddr = ":8080"
	DefaultDatabase   = "wayfinder"
	DefaultCollection = "buildings"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the top-level configuration file.
type Config struct {
	Building string              `toml:"building"`
	Start    string              `toml:"start"`
	Routing  Routing             `toml:"routing"`
	Surface  Surface             `toml:"surface"`
	Style    Style               `toml:"style"`
	Floors   []Floor             `toml:"floors"`
	Aliases  map[string][]string `toml:"aliases"`
	Cache    Cache               `toml:"cache"`
	Server   Server              `toml:"server"`
	Store    Store               `toml:"store"`
}

// Routing configures the route search.
type Routing struct {
	FloorPenalty   float64  `toml:"floor_penalty"`
	Interfloor     string   `toml:"interfloor"` // connectors, any or none
	ConnectorKinds []string `toml:"connector_kinds"`
}

// Surface is the pixel size of every floor surface.
type Surface struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Style mirrors [render.Style] with TOML names.
type Style struct {
	LineWidth    float64  `toml:"line_width"`
	OutlineWidth float64  `toml:"outline_width"`
	Color        string   `toml:"color"`
	OutlineColor string   `toml:"outline_color"`
	StartColor   string   `toml:"start_color"`
	EndColor     string   `toml:"end_color"`
	MarkerRadius float64  `toml:"marker_radius"`
	MarkerBorder float64  `toml:"marker_border"`
	BorderColor  string   `toml:"border_color"`
	NodeRadius   float64  `toml:"node_radius"`
	NodeColor    string   `toml:"node_color"`
	Background   string   `toml:"background"`
	Duration     Duration `toml:"duration"`
	Fit          string   `toml:"fit"` // contain or stretch
}

// Floor describes the floor plan of one floor.
type Floor struct {
	Number     int    `toml:"number"`
	Background string `toml:"background"`
	// Width and Height are the reference extent of node coordinates on this
	// floor. Zero means DefaultExtentWidth x DefaultExtentHeight.
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	// OffsetX and OffsetY shift node positions in pixels to line them up
	// with the floor plan.
	OffsetX float64 `toml:"offset_x"`
	OffsetY float64 `toml:"offset_y"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend   string   `toml:"backend"` // file, redis or none
	Dir       string   `toml:"dir"`     // file backend; empty means the user cache dir
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	Prefix    string   `toml:"prefix"`
	TTL       Duration `toml:"ttl"` // zero uses the per-type defaults
}

// Server configures wayfinder serve.
type Server struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"` // reload the building file on change
}

// Store configures the MongoDB building store.
type Store struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Duration is a time.Duration written as a string such as "2s" or "1h30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	s := render.DefaultStyle()
	return Config{
		Routing: Routing{
			FloorPenalty:   route.DefaultFloorPenalty,
			Interfloor:     route.PolicyConnectors,
			ConnectorKinds: slices.Clone(route.DefaultConnectorKinds),
		},
		Surface: Surface{Width: DefaultSurfaceWidth, Height: DefaultSurfaceHeight},
		Style: Style{
			LineWidth:    s.LineWidth,
			OutlineWidth: s.OutlineWidth,
			Color:        s.Color,
			OutlineColor: s.OutlineColor,
			StartColor:   s.StartColor,
			EndColor:     s.EndColor,
			MarkerRadius: s.MarkerRadius,
			MarkerBorder: s.MarkerBorder,
			BorderColor:  s.BorderColor,
			NodeRadius:   s.NodeRadius,
			NodeColor:    s.NodeColor,
			Background:   s.Background,
			Duration:     Duration{s.Duration},
			Fit:          s.Fit.String(),
		},
		Cache:  Cache{Backend: CacheFile, Prefix: "wayfinder:"},
		Server: Server{Addr: DefaultServerAddr},
		Store:  Store{Database: DefaultDatabase, Collection: DefaultCollection},
	}
}

// Load reads the configuration at path on top of [Default] and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, err
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses TOML text on top of [Default] without touching the
// filesystem. Relative paths are left as written.
func Decode(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Building = abs(c.Building)
	c.Cache.Dir = abs(c.Cache.Dir)
	for i := range c.Floors {
		c.Floors[i].Background = abs(c.Floors[i].Background)
	}
}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c Config) Validate() error {
	if c.Routing.FloorPenalty < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "routing.floor_penalty must not be negative")
	}
	if _, err := c.Interfloor(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "routing.interfloor")
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "surface size must be positive, got %dx%d",
			c.Surface.Width, c.Surface.Height)
	}
	if _, err := c.RenderStyle(); err != nil {
		return err
	}

	seen := make(map[int]bool, len(c.Floors))
	for _, f := range c.Floors {
		if seen[f.Number] {
			return errors.New(errors.ErrCodeInvalidConfig, "floor %d configured twice", f.Number)
		}
		seen[f.Number] = true
		if f.Width < 0 || f.Height < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "floor %d: extent must not be negative", f.Number)
		}
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// Interfloor returns the configured inter-floor policy.
func (c Config) Interfloor() (route.InterfloorFunc, error) {
	return route.PolicyByName(c.Routing.Interfloor, c.Routing.ConnectorKinds)
}

// RouterOptions returns the router options for the routing section.
func (c Config) RouterOptions() ([]route.Option, error) {
	fn, err := c.Interfloor()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "routing.interfloor")
	}
	return []route.Option{
		route.WithFloorPenalty(c.Routing.FloorPenalty),
		route.WithInterfloor(fn),
	}, nil
}

// RenderStyle converts the style section.
func (c Config) RenderStyle() (render.Style, error) {
	fit, err := render.ParseFitMode(c.Style.Fit)
	if err != nil {
		return render.Style{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "style.fit")
	}
	s := render.Style{
		LineWidth:    c.Style.LineWidth,
		OutlineWidth: c.Style.OutlineWidth,
		Color:        c.Style.Color,
		OutlineColor: c.Style.OutlineColor,
		StartColor:   c.Style.StartColor,
		EndColor:     c.Style.EndColor,
		MarkerRadius: c.Style.MarkerRadius,
		MarkerBorder: c.Style.MarkerBorder,
		BorderColor:  c.Style.BorderColor,
		NodeRadius:   c.Style.NodeRadius,
		NodeColor:    c.Style.NodeColor,
		Background:   c.Style.Background,
		Duration:     c.Style.Duration.Duration,
		Fit:          fit,
	}
	return s, s.Validate()
}

// Floor returns the configuration of floor n. Floors that are not listed get
// the default extent and no floor plan.
func (c Config) Floor(n int) Floor {
	for _, f := range c.Floors {
		if f.Number == n {
			return f
		}
	}
	return Floor{Number: n}
}

// SurfaceConfig returns the surface settings of floor n. The floor plan
// itself is loaded separately with [render.LoadBackground].
func (c Config) SurfaceConfig(n int) render.SurfaceConfig {
	f := c.Floor(n)
	ext := render.Extent{Width: f.Width, Height: f.Height}
	if ext.Width == 0 {
		ext.Width = DefaultExtentWidth
	}
	if ext.Height == 0 {
		ext.Height = DefaultExtentHeight
	}
	fit, _ := render.ParseFitMode(c.Style.Fit)
	return render.SurfaceConfig{
		Floor:       n,
		Width:       c.Surface.Width,
		Height:      c.Surface.Height,
		Extent:      ext,
		Calibration: render.Offset{X: f.OffsetX, Y: f.OffsetY},
		Fit:         fit,
		Fill:        c.Style.Background,
	}
}

// InterfloorKey is the policy description used in route cache keys.
func (c Config) InterfloorKey() string {
	name := strings.ToLower(strings.TrimSpace(c.Routing.Interfloor))
	if name == "" {
		name = route.PolicyConnectors
	}
	return name
}
