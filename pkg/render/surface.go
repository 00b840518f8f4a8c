package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// SurfaceConfig describes one floor's drawing target.
type SurfaceConfig struct {
	Floor         int
	Width, Height int         // pixels
	Extent        Extent      // reference extent; defaults to Width x Height
	Calibration   Offset      // pixel shift applied to node positions
	Fit           FitMode     // how Extent maps onto the surface
	Background    image.Image // floor plan; optional
	Fill          string      // color behind the floor plan; defaults to DefaultStyle().Background
}

// Surface is the pixel buffer of one floor together with its floor plan.
//
// A Surface keeps the strokes of segments that finished rendering on it, so
// that a route which leaves a floor and later returns keeps the earlier part
// visible. All methods are safe for concurrent use.
type Surface struct {
	floor     int
	transform Transform

	mu        sync.Mutex
	base      *image.RGBA // fill + scaled floor plan
	img       *image.RGBA
	dc        *gg.Context
	committed []stroke
}

// stroke is a finished segment kept on a surface.
type stroke struct {
	pts        []Point
	start, end bool
}

// NewSurface creates a surface and paints its background.
func NewSurface(cfg SurfaceConfig) (*Surface, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"floor %d: surface size must be positive, got %dx%d", cfg.Floor, cfg.Width, cfg.Height)
	}
	if cfg.Extent.Width <= 0 || cfg.Extent.Height <= 0 {
		cfg.Extent = Extent{Width: float64(cfg.Width), Height: float64(cfg.Height)}
	}
	fill := cfg.Fill
	if fill == "" {
		fill = DefaultStyle().Background
	}
	if err := checkHex(fill); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "floor %d background fill", cfg.Floor)
	}

	bounds := image.Rect(0, 0, cfg.Width, cfg.Height)
	base := image.NewRGBA(bounds)
	bg := gg.NewContextForRGBA(base)
	bg.SetHexColor(fill)
	bg.Clear()

	if cfg.Background != nil {
		// The plan covers the extent's pixel rectangle, without calibration.
		plain := NewTransform(cfg.Extent, cfg.Width, cfg.Height, cfg.Fit, Offset{})
		tl := plain.Apply(building.Point{})
		br := plain.Apply(building.Point{X: cfg.Extent.Width, Y: cfg.Extent.Height})
		dst := image.Rect(int(tl.X+0.5), int(tl.Y+0.5), int(br.X+0.5), int(br.Y+0.5))
		xdraw.CatmullRom.Scale(base, dst, cfg.Background, cfg.Background.Bounds(), xdraw.Over, nil)
	}

	img := image.NewRGBA(bounds)
	xdraw.Draw(img, bounds, base, image.Point{}, xdraw.Src)
	return &Surface{
		floor:     cfg.Floor,
		transform: NewTransform(cfg.Extent, cfg.Width, cfg.Height, cfg.Fit, cfg.Calibration),
		base:      base,
		img:       img,
		dc:        gg.NewContextForRGBA(img),
	}, nil
}

// Floor returns the floor index this surface draws.
func (s *Surface) Floor() int { return s.floor }

// Bounds returns the pixel rectangle of the surface.
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Transform returns the floor-to-pixel transform.
func (s *Surface) Transform() Transform { return s.transform }

// Reset forgets committed strokes and repaints the background.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = nil
	s.paintBase()
}

// Committed returns the number of finished strokes kept on the surface.
func (s *Surface) Committed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Surface) snapshotLocked() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// EncodePNG writes the current pixels as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return png.Encode(w, s.img)
}

// At returns the color of one pixel; used by tests and previews.
func (s *Surface) At(x, y int) color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.At(x, y)
}

func (s *Surface) paintBase() {
	copy(s.img.Pix, s.base.Pix)
}

// frame describes everything drawn in one redraw besides the background.
type frame struct {
	style  Style
	nodes  []Point // debug overlay
	pts    []Point // current (possibly partial) stroke
	start  bool    // start marker at pts[0]
	end    bool    // destination marker at the last point
	commit bool    // keep pts as a finished stroke after drawing
}

// drawLocked repaints the surface. The caller holds s.mu.
func (s *Surface) drawLocked(f frame) {
	s.paintBase()
	dc := s.dc
	st := f.style

	for _, p := range f.nodes {
		dc.DrawCircle(p.X, p.Y, st.NodeRadius)
		dc.SetHexColor(st.NodeColor)
		dc.Fill()
	}

	for _, c := range s.committed {
		s.strokeLocked(c.pts, st)
	}
	s.strokeLocked(f.pts, st)

	for _, c := range s.committed {
		s.markersLocked(c.pts, c.start, c.end, st)
	}
	s.markersLocked(f.pts, f.start, f.end, st)

	if f.commit && len(f.pts) > 0 {
		s.committed = append(s.committed, stroke{pts: f.pts, start: f.start, end: f.end})
	}
}

func (s *Surface) strokeLocked(pts []Point, st Style) {
	if len(pts) < 2 {
		return
	}
	dc := s.dc
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, pass := range []struct {
		width float64
		color string
	}{
		{st.OutlineWidth, st.OutlineColor},
		{st.LineWidth, st.Color},
	} {
		dc.NewSubPath()
		dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.SetLineWidth(pass.width)
		dc.SetHexColor(pass.color)
		dc.Stroke()
	}
}

func (s *Surface) markersLocked(pts []Point, start, end bool, st Style) {
	if len(pts) == 0 {
		return
	}
	if start {
		s.markerLocked(pts[0], st.StartColor, st)
	}
	if end {
		s.markerLocked(pts[len(pts)-1], st.EndColor, st)
	}
}

func (s *Surface) markerLocked(p Point, fill string, st Style) {
	dc := s.dc
	if st.MarkerBorder > 0 {
		dc.DrawCircle(p.X, p.Y, st.MarkerRadius+st.MarkerBorder)
		dc.SetHexColor(st.BorderColor)
		dc.Fill()
	}
	dc.DrawCircle(p.X, p.Y, st.MarkerRadius)
	dc.SetHexColor(fill)
	dc.Fill()
}

// LoadBackground reads a floor plan image. PNG and JPEG are decoded directly;
// SVG is rasterised with rsvg-convert at width x height (or its natural size
// when either is zero).
func LoadBackground(path string, width, height int) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "floor plan %s", path)
		}
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		svg, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var raw []byte
		if width > 0 && height > 0 {
			raw, err = toPNGSize(svg, width, height)
		} else {
			raw, err = ToPNG(svg, 1)
		}
		if err != nil {
			return nil, err
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode rasterised %s", path)
		}
		return img, nil
	}

	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode floor plan %s", path)
	}
	return img, nil
}
