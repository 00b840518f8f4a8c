package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/wayfinder/pkg/building"
)

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

// Extent is the nominal size of a floor's coordinate system in reference units.
type Extent struct {
	Width, Height float64
}

// Offset is a pixel shift applied after scaling, used to calibrate node
// positions against a floor plan image.
type Offset struct {
	X, Y float64
}

// FitMode selects how an extent is mapped onto a surface.
type FitMode int

const (
	// FitContain scales uniformly by the smaller ratio and centres the result.
	FitContain FitMode = iota
	// FitStretch scales each axis independently to fill the surface.
	FitStretch
)

func (m FitMode) String() string {
	switch m {
	case FitContain:
		return "contain"
	case FitStretch:
		return "stretch"
	}
	return fmt.Sprintf("FitMode(%d)", int(m))
}

// ParseFitMode parses "contain" or "stretch". An empty string is contain.
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contain":
		return FitContain, nil
	case "stretch", "fill":
		return FitStretch, nil
	}
	return FitContain, fmt.Errorf("unknown fit mode %q", s)
}

// Transform maps floor-local coordinates to pixels:
// pixel = position*scale + offset.
type Transform struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// NewTransform computes the transform from extent onto a width x height
// surface. A non-positive extent dimension is taken to equal the surface.
// The calibration offset is added on top of any centring offset.
func NewTransform(extent Extent, width, height int, mode FitMode, calibration Offset) Transform {
	w, h := float64(width), float64(height)
	ew, eh := extent.Width, extent.Height
	if ew <= 0 {
		ew = w
	}
	if eh <= 0 {
		eh = h
	}

	if mode == FitStretch {
		return Transform{
			ScaleX:  w / ew,
			ScaleY:  h / eh,
			OffsetX: calibration.X,
			OffsetY: calibration.Y,
		}
	}
	s := min(w/ew, h/eh)
	return Transform{
		ScaleX:  s,
		ScaleY:  s,
		OffsetX: (w-ew*s)/2 + calibration.X,
		OffsetY: (h-eh*s)/2 + calibration.Y,
	}
}

// Apply maps one floor-local point.
func (t Transform) Apply(p building.Point) Point {
	return Point{X: p.X*t.ScaleX + t.OffsetX, Y: p.Y*t.ScaleY + t.OffsetY}
}

// ApplyAll maps a sequence of floor-local points.
func (t Transform) ApplyAll(pts []building.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}
