package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/render"
	"github.com/matzehuels/wayfinder/pkg/route"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Routing.FloorPenalty != route.DefaultFloorPenalty {
		t.Errorf("FloorPenalty = %v", cfg.Routing.FloorPenalty)
	}
	s, err := cfg.RenderStyle()
	if err != nil {
		t.Fatal(err)
	}
	if s != render.DefaultStyle() {
		t.Errorf("RenderStyle() = %+v, want DefaultStyle", s)
	}
}

const sample = `
building = "campus.json"
start    = "entrance"

[routing]
floor_penalty = 200
interfloor    = "any"

[surface]
width  = 400
height = 300

[style]
color    = "#ff0000"
duration = "500ms"
fit      = "stretch"

[[floors]]
number     = 1
background = "plans/1.png"
width      = 1000
height     = 800
offset_x   = 12

[[floors]]
number = 2

[aliases]
toilet = ["wc_1", "wc_2"]

[cache]
backend = "none"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wayfinder.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Building != filepath.Join(dir, "campus.json") {
		t.Errorf("Building = %s, want resolved against config dir", cfg.Building)
	}
	if cfg.Floors[0].Background != filepath.Join(dir, "plans", "1.png") {
		t.Errorf("Background = %s", cfg.Floors[0].Background)
	}
	if cfg.Start != "entrance" || cfg.Routing.FloorPenalty != 200 {
		t.Errorf("unexpected routing: %+v", cfg.Routing)
	}
	if got := cfg.Aliases["toilet"]; len(got) != 2 {
		t.Errorf("Aliases = %v", cfg.Aliases)
	}

	// Unset keys keep their defaults.
	if cfg.Style.LineWidth != render.DefaultStyle().LineWidth {
		t.Errorf("LineWidth = %v, want default", cfg.Style.LineWidth)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}

	s, err := cfg.RenderStyle()
	if err != nil {
		t.Fatal(err)
	}
	if s.Duration != 500*time.Millisecond || s.Fit != render.FitStretch || s.Color != "#ff0000" {
		t.Errorf("RenderStyle() = %+v", s)
	}

	sc := cfg.SurfaceConfig(1)
	if sc.Width != 400 || sc.Extent.Width != 1000 || sc.Calibration.X != 12 || sc.Fit != render.FitStretch {
		t.Errorf("SurfaceConfig(1) = %+v", sc)
	}
	sc = cfg.SurfaceConfig(7)
	if sc.Extent.Width != DefaultExtentWidth || sc.Extent.Height != DefaultExtentHeight {
		t.Errorf("unlisted floor should get the default extent, got %+v", sc.Extent)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing", filepath.Join(dir, "nope.toml"), errors.ErrCodeFileNotFound},
		{"syntax", write("syntax.toml", "building = "), errors.ErrCodeInvalidConfig},
		{"unknown key", write("unknown.toml", "bulding = \"x\""), errors.ErrCodeInvalidConfig},
		{"bad duration", write("dur.toml", "[style]\nduration = \"soon\""), errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative penalty", func(c *Config) { c.Routing.FloorPenalty = -1 }},
		{"unknown policy", func(c *Config) { c.Routing.Interfloor = "teleport" }},
		{"zero surface", func(c *Config) { c.Surface.Width = 0 }},
		{"bad color", func(c *Config) { c.Style.Color = "blue" }},
		{"bad fit", func(c *Config) { c.Style.Fit = "cover" }},
		{"duplicate floor", func(c *Config) { c.Floors = []Floor{{Number: 1}, {Number: 1}} }},
		{"negative extent", func(c *Config) { c.Floors = []Floor{{Number: 1, Width: -5}} }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = Duration{-time.Second} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestRouterOptions(t *testing.T) {
	cfg, err := Decode("[routing]\ninterfloor = \"none\"\nfloor_penalty = 10")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.RouterOptions()
	if err != nil {
		t.Fatal(err)
	}
	r := route.NewRouter(opts...)
	if r.FloorPenalty() != 10 {
		t.Errorf("FloorPenalty() = %v", r.FloorPenalty())
	}

	g, _ := building.Assemble([]building.NodeSpec{
		{Node: building.Node{ID: "a", Floor: 1}, Neighbors: []string{"b"}},
		{Node: building.Node{ID: "b", Floor: 2}},
	})
	if _, err := r.Search(g, "a", "b"); !errors.Is(err, errors.ErrCodePathNotFound) {
		t.Errorf("policy none should block crossings, got %v", err)
	}
	if cfg.InterfloorKey() != "none" {
		t.Errorf("InterfloorKey() = %q", cfg.InterfloorKey())
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte(" 1m30s ")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v", d.Duration)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %s", text)
	}
}
