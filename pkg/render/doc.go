// Package render draws routes onto per-floor raster surfaces.
//
// # Overview
//
// Every floor has a [Surface]: an RGBA pixel buffer with the floor plan
// scaled onto it, the floor's reference [Extent] and an optional calibration
// [Offset]. A [Transform] maps floor-local coordinates to surface pixels,
// either preserving aspect ratio ([FitContain]) or stretching to fill
// ([FitStretch]).
//
// A [Renderer] draws one route segment at a time. A static draw paints the
// background, a wide outline stroke, the main stroke and the markers in one
// go. An animated draw repeats that on every clock tick, cutting the
// [Polyline] at an eased fraction of its length, until the full segment and
// the destination marker are shown.
//
// # Animation and Cancellation
//
// Animations run in their own goroutine and suspend only in
// [FrameClock.Tick]. Each returns a [Handle] that can be stopped or awaited.
// Starting a new render on a floor first stops and waits for the animation
// already running there, so two animations never draw on one surface. A
// stopped animation does not draw again.
//
//	r := render.New(render.WithClock(render.NewTickerClock(60)))
//	r.AddSurface(surface)
//	err := r.RenderRoute(ctx, segments, true)
//
// Offline exports use a [SteppedClock], which advances by a fixed step per
// tick without sleeping, and a [GIFRecorder] attached as the frame sink.
//
// # Format Conversion
//
// [ToPNG] and [ToPDF] convert SVG (floor plans, graph exports) using the
// external rsvg-convert tool from librsvg.
package render
