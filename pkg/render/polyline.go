package render

import "math"

// Polyline is a pixel-space path with precomputed cumulative arc lengths.
type Polyline struct {
	pts []Point
	cum []float64 // cum[i] is the length from pts[0] to pts[i]
}

// NewPolyline builds a Polyline. Repeated points are kept and contribute zero
// length.
func NewPolyline(pts []Point) Polyline {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return Polyline{pts: pts, cum: cum}
}

// Len returns the number of vertices.
func (p Polyline) Len() int { return len(p.pts) }

// Length returns the total arc length.
func (p Polyline) Length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// Points returns the vertices. The slice must not be modified.
func (p Polyline) Points() []Point { return p.pts }

// Prefix returns the vertices of the first cut units of the polyline. The last
// returned point is interpolated on the segment that straddles cut. A cut at
// or beyond Length returns every vertex; a cut at or below zero returns only
// the first vertex.
func (p Polyline) Prefix(cut float64) []Point {
	if len(p.pts) == 0 {
		return nil
	}
	if cut <= 0 {
		return []Point{p.pts[0]}
	}
	if cut >= p.Length() {
		return append([]Point(nil), p.pts...)
	}
	for i := 1; i < len(p.pts); i++ {
		if p.cum[i] < cut {
			continue
		}
		out := append([]Point(nil), p.pts[:i]...)
		if p.cum[i] == cut {
			return append(out, p.pts[i])
		}
		a, b := p.pts[i-1], p.pts[i]
		t := (cut - p.cum[i-1]) / (p.cum[i] - p.cum[i-1])
		return append(out, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
	return append([]Point(nil), p.pts...)
}
