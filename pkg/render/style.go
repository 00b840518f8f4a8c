package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/wayfinder/pkg/errors"
)

// Style configures route drawing. Colors are hex strings (#rgb, #rrggbb or
// #rrggbbaa).
type Style struct {
	LineWidth    float64 // main stroke width in pixels
	OutlineWidth float64 // outline stroke width, drawn under the main stroke
	Color        string  // main stroke
	OutlineColor string

	StartColor   string
	EndColor     string
	MarkerRadius float64
	MarkerBorder float64 // white ring around markers
	BorderColor  string

	NodeRadius float64 // debug node dots, see WithNodeOverlay
	NodeColor  string

	Background string // fill behind the floor plan

	Duration time.Duration // per-segment animation length
	Fit      FitMode
}

// DefaultStyle returns the default route style.
func DefaultStyle() Style {
	return Style{
		LineWidth:    5,
		OutlineWidth: 8,
		Color:        "#2563eb",
		OutlineColor: "#fffffff5",
		StartColor:   "#16a34a",
		EndColor:     "#dc2626",
		MarkerRadius: 6,
		MarkerBorder: 2,
		BorderColor:  "#ffffff",
		NodeRadius:   3.5,
		NodeColor:    "#ff00ff",
		Background:   "#f8fafc",
		Duration:     2 * time.Second,
		Fit:          FitContain,
	}
}

// Validate reports the first invalid field as an INVALID_CONFIG error.
func (s Style) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"line width", s.LineWidth},
		{"outline width", s.OutlineWidth},
		{"marker radius", s.MarkerRadius},
	} {
		if f.v <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "style: %s must be positive, got %v", f.name, f.v)
		}
	}
	if s.MarkerBorder < 0 || s.NodeRadius < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "style: marker border and node radius must not be negative")
	}
	if s.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "style: duration must not be negative")
	}
	for _, f := range []struct {
		name string
		v    string
	}{
		{"color", s.Color},
		{"outline color", s.OutlineColor},
		{"start color", s.StartColor},
		{"end color", s.EndColor},
		{"border color", s.BorderColor},
		{"node color", s.NodeColor},
		{"background", s.Background},
	} {
		if err := checkHex(f.v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "style: %s", f.name)
		}
	}
	return nil
}

func checkHex(c string) error {
	h, ok := strings.CutPrefix(c, "#")
	if !ok {
		return fmt.Errorf("color %q must start with #", c)
	}
	switch len(h) {
	case 3, 6, 8:
	default:
		return fmt.Errorf("color %q must have 3, 6 or 8 hex digits", c)
	}
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fmt.Errorf("color %q is not hex", c)
		}
	}
	return nil
}
