package render

import (
	"context"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/observability"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Frame is reported to the frame sink after every redraw.
type Frame struct {
	Floor  int
	Handle uuid.UUID
	Index  int         // 0-based within one render
	Cutoff float64     // drawn arc length in pixels
	Length float64     // total arc length in pixels
	Final  bool        // full segment with destination marker
	Image  *image.RGBA // copy of the surface after the redraw
}

// FrameFunc receives frames. It is called from the rendering goroutine and
// must not call back into the Renderer.
type FrameFunc func(Frame)

// RenderOptions controls a single [Renderer.Render] call.
type RenderOptions struct {
	Animate   bool // draw progressively on clock ticks
	MarkStart bool // draw the start marker at the segment's first node
	Keep      bool // keep the finished stroke on the surface for later redraws
}

// Renderer draws route segments onto per-floor surfaces.
type Renderer struct {
	style   Style
	clock   FrameClock
	sink    FrameFunc
	logger  *log.Logger
	overlay *building.Graph

	startMu  sync.Mutex // serialises stop-then-start in Render
	mu       sync.Mutex
	surfaces map[int]*Surface
	active   map[int]*Handle
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle sets the drawing style.
func WithStyle(s Style) Option {
	return func(r *Renderer) { r.style = s }
}

// WithClock sets the animation clock. The default is a 60 fps [TickerClock].
func WithClock(c FrameClock) Option {
	return func(r *Renderer) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithFrameSink registers a callback receiving every drawn frame.
func WithFrameSink(fn FrameFunc) Option {
	return func(r *Renderer) { r.sink = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNodeOverlay draws every node of g as a small dot on its floor, which
// helps calibrate node coordinates against a floor plan.
func WithNodeOverlay(g *building.Graph) Option {
	return func(r *Renderer) { r.overlay = g }
}

// New returns a Renderer without surfaces.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		style:    DefaultStyle(),
		clock:    NewTickerClock(60),
		logger:   log.Default(),
		surfaces: make(map[int]*Surface),
		active:   make(map[int]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Style returns the renderer's style.
func (r *Renderer) Style() Style { return r.style }

// AddSurface registers s for its floor, replacing any previous surface.
func (r *Renderer) AddSurface(s *Surface) {
	r.Stop(s.Floor())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[s.Floor()] = s
}

// Surface returns the surface for floor.
func (r *Renderer) Surface(floor int) (*Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[floor]
	return s, ok
}

// Floors returns the floors with a surface, ascending.
func (r *Renderer) Floors() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	floors := make([]int, 0, len(r.surfaces))
	for f := range r.surfaces {
		floors = append(floors, f)
	}
	slices.Sort(floors)
	return floors
}

// Stop cancels the animation running on floor, if any, and waits for it to
// exit. After Stop returns nothing more is drawn by that animation.
func (r *Renderer) Stop(floor int) {
	r.mu.Lock()
	h := r.active[floor]
	r.mu.Unlock()
	if h != nil {
		h.Stop()
		<-h.Done()
	}
}

// StopAll stops every running animation.
func (r *Renderer) StopAll() {
	for _, f := range r.Floors() {
		r.Stop(f)
	}
}

// Render draws seg on its floor's surface.
//
// A missing surface is a RENDER_TARGET_UNAVAILABLE error and an empty segment
// an INVALID_INPUT error. Any animation still running on the floor is stopped
// and awaited first. A static render has finished when Render returns; an
// animated one finishes when the returned handle is done. Cancelling ctx
// stops the animation like [Handle.Stop].
func (r *Renderer) Render(ctx context.Context, seg route.Segment, opts RenderOptions) (*Handle, error) {
	if len(seg.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot render an empty segment")
	}
	surf, ok := r.Surface(seg.Floor)
	if !ok {
		return nil, errors.New(errors.ErrCodeRenderTargetUnavailable, "no surface for floor %d", seg.Floor)
	}

	r.startMu.Lock()
	defer r.startMu.Unlock()
	r.Stop(seg.Floor)

	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		ID:     uuid.New(),
		Floor:  seg.Floor,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	job := &job{
		r:     r,
		h:     h,
		surf:  surf,
		line:  NewPolyline(surf.Transform().ApplyAll(seg.Points())),
		nodes: r.overlayPoints(surf),
		opts:  opts,
		began: time.Now(),
	}

	r.mu.Lock()
	r.active[seg.Floor] = h
	r.mu.Unlock()

	observability.Render().OnRenderStart(ctx, seg.Floor, opts.Animate)
	r.logger.Debug("render segment", "floor", seg.Floor, "nodes", len(seg.Nodes),
		"length", job.line.Length(), "animate", opts.Animate, "handle", h.ID)

	if !opts.Animate {
		job.finish(job.drawStatic(hctx))
		return h, nil
	}
	go job.animate(hctx)
	return h, nil
}

// RenderRoute draws a whole route. Every floor the route visits must have a
// surface; otherwise nothing is drawn and the error is
// RENDER_TARGET_UNAVAILABLE. The visited surfaces are reset, then segments are
// rendered in order, each one finished before the next starts. The first
// segment gets the start marker and every finished segment stays visible.
func (r *Renderer) RenderRoute(ctx context.Context, segs []route.Segment, animate bool) error {
	visited := route.Floors(segs)
	for _, f := range visited {
		if _, ok := r.Surface(f); !ok {
			return errors.New(errors.ErrCodeRenderTargetUnavailable, "no surface for floor %d", f)
		}
	}
	for _, f := range visited {
		r.Stop(f)
		s, _ := r.Surface(f)
		s.Reset()
	}

	for i, seg := range segs {
		h, err := r.Render(ctx, seg, RenderOptions{Animate: animate, MarkStart: i == 0, Keep: true})
		if err != nil {
			return err
		}
		if err := h.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) overlayPoints(s *Surface) []Point {
	if r.overlay == nil {
		return nil
	}
	var pts []building.Point
	for _, n := range r.overlay.NodesOnFloor(s.Floor()) {
		pts = append(pts, n.Pos)
	}
	return s.Transform().ApplyAll(pts)
}

func (r *Renderer) release(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[h.Floor] == h {
		delete(r.active, h.Floor)
	}
}

// job is one segment render in progress.
type job struct {
	r      *Renderer
	h      *Handle
	surf   *Surface
	line   Polyline
	nodes  []Point
	opts   RenderOptions
	began  time.Time
	frames int
}

// draw redraws the surface up to cut. It does nothing once ctx is done, so a
// cancelled job never paints over a newer one.
func (j *job) draw(ctx context.Context, cut float64, final bool) error {
	s := j.surf
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.drawLocked(frame{
		style:  j.r.style,
		nodes:  j.nodes,
		pts:    j.line.Prefix(cut),
		start:  j.opts.MarkStart,
		end:    final,
		commit: final && j.opts.Keep,
	})
	var img *image.RGBA
	if j.r.sink != nil {
		img = s.snapshotLocked()
	}
	s.mu.Unlock()

	if j.r.sink != nil {
		j.r.sink(Frame{
			Floor:  s.Floor(),
			Handle: j.h.ID,
			Index:  j.frames,
			Cutoff: min(cut, j.line.Length()),
			Length: j.line.Length(),
			Final:  final,
			Image:  img,
		})
	}
	j.frames++
	return nil
}

func (j *job) drawStatic(ctx context.Context) error {
	return j.draw(ctx, j.line.Length(), true)
}

func (j *job) animate(ctx context.Context) {
	var (
		first    time.Time
		started  bool
		duration = j.r.style.Duration
		length   = j.line.Length()
	)
	for {
		now, err := j.r.clock.Tick(ctx)
		if err != nil {
			j.finish(err)
			return
		}
		if !started {
			first, started = now, true
		}
		p := Progress(now.Sub(first), duration)
		if p >= 1 {
			j.finish(j.draw(ctx, length, true))
			return
		}
		if err := j.draw(ctx, p*length, false); err != nil {
			j.finish(err)
			return
		}
	}
}

func (j *job) finish(err error) {
	j.r.release(j.h)
	observability.Render().OnRenderComplete(context.Background(), j.h.Floor, j.frames, time.Since(j.began), err)
	if err != nil {
		j.r.logger.Debug("render stopped", "floor", j.h.Floor, "handle", j.h.ID, "frames", j.frames, "err", err)
	}
	j.h.resolve(err)
}

// Handle tracks one render.
type Handle struct {
	ID    uuid.UUID
	Floor int

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Stop cancels the render. It does not wait; use [Handle.Wait] for that.
func (h *Handle) Stop() { h.cancel() }

// Done is closed when the render has finished or stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the render ends. It returns nil when the full segment was
// drawn and the context error when it was stopped.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

func (h *Handle) resolve(err error) {
	h.once.Do(func() {
		h.err = err
		h.cancel()
		close(h.done)
	})
}
