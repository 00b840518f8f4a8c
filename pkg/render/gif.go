package render

import (
	"image"
	"image/color/palette"
	"image/gif"
	"io"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/wayfinder/pkg/errors"
)

// GIFRecorder collects frames from a Renderer and encodes them as an animated
// GIF. Attach [GIFRecorder.Sink] with [WithFrameSink].
type GIFRecorder struct {
	every int
	hold  time.Duration

	mu     sync.Mutex
	frames []Frame
}

// NewGIFRecorder keeps every n-th animation frame plus every final frame.
// Final frames are held on screen for hold. n below 1 keeps all frames.
func NewGIFRecorder(n int, hold time.Duration) *GIFRecorder {
	return &GIFRecorder{every: max(n, 1), hold: hold}
}

// Sink returns the frame callback.
func (g *GIFRecorder) Sink() FrameFunc {
	return func(f Frame) {
		if f.Image == nil || (!f.Final && f.Index%g.every != 0) {
			return
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		g.frames = append(g.frames, f)
	}
}

// Len returns the number of recorded frames.
func (g *GIFRecorder) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.frames)
}

// Encode writes the recorded frames as a looping GIF, with delay between
// animation frames.
func (g *GIFRecorder) Encode(w io.Writer, delay time.Duration) error {
	g.mu.Lock()
	frames := append([]Frame(nil), g.frames...)
	g.mu.Unlock()
	return EncodeGIF(w, frames, delay, g.hold)
}

// EncodeGIF encodes frames as a looping animated GIF. Frames are dithered to
// the web-safe palette. Final frames are shown for hold instead of delay.
func EncodeGIF(w io.Writer, frames []Frame, delay, hold time.Duration) error {
	if len(frames) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no frames to encode")
	}

	anim := &gif.GIF{}
	var bounds image.Rectangle
	for _, f := range frames {
		b := f.Image.Bounds()
		bounds = bounds.Union(b)

		pal := image.NewPaletted(b, palette.WebSafe)
		xdraw.FloydSteinberg.Draw(pal, b, f.Image, b.Min)
		anim.Image = append(anim.Image, pal)

		d := delay
		if f.Final && hold > 0 {
			d = hold
		}
		anim.Delay = append(anim.Delay, max(int(d/(10*time.Millisecond)), 1))
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	anim.Config.Width, anim.Config.Height = bounds.Dx(), bounds.Dy()
	return gif.EncodeAll(w, anim)
}
