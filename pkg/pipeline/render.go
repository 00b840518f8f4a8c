package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"slices"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/render"
	"github.com/matzehuels/wayfinder/pkg/render/nodelink"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// renderArtifacts draws every requested format for rt.
//
// PNG and GIF share one render pass: when a GIF is requested the route is
// animated on a stepped clock and every frame is recorded, and the PNGs are
// the surfaces as the animation left them.
func (r *Runner) renderArtifacts(ctx context.Context, g *building.Graph, rt *Route, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte)

	wantPNG := slices.Contains(opts.Formats, FormatPNG)
	wantGIF := slices.Contains(opts.Formats, FormatGIF)
	if wantPNG || wantGIF {
		if err := r.renderRaster(ctx, g, rt, opts, wantPNG, wantGIF, out); err != nil {
			return nil, err
		}
	}

	if slices.Contains(opts.Formats, FormatJSON) {
		data, err := json.MarshalIndent(rt, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode route: %w", err)
		}
		out[ArtifactJSON] = data
	}

	if slices.Contains(opts.Formats, FormatSVG) {
		dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true, Highlight: rt.Path})
		svg, err := nodelink.RenderSVG(dot)
		if err != nil {
			return nil, fmt.Errorf("graph svg: %w", err)
		}
		out[ArtifactSVG] = svg
	}
	return out, nil
}

func (r *Runner) renderRaster(ctx context.Context, g *building.Graph, rt *Route, opts Options, wantPNG, wantGIF bool, out map[string][]byte) error {
	segs, err := route.Segments(rt.Path, g)
	if err != nil {
		return err
	}
	style, err := r.Config.RenderStyle()
	if err != nil {
		return err
	}

	ropts := []render.Option{render.WithStyle(style), render.WithLogger(opts.Logger)}
	var rec *render.GIFRecorder
	if wantGIF {
		rec = render.NewGIFRecorder(1, DefaultHold)
		ropts = append(ropts,
			render.WithClock(render.NewSteppedClock(opts.FrameStep())),
			render.WithFrameSink(rec.Sink()))
	}
	if opts.ShowNodes {
		ropts = append(ropts, render.WithNodeOverlay(g))
	}
	rd := render.New(ropts...)
	defer rd.StopAll()

	floors := distinct(route.Floors(segs))
	for _, f := range floors {
		surf, err := r.newSurface(f)
		if err != nil {
			return err
		}
		rd.AddSurface(surf)
	}

	if err := rd.RenderRoute(ctx, segs, wantGIF); err != nil {
		return err
	}

	if wantPNG {
		for _, f := range floors {
			surf, _ := rd.Surface(f)
			var buf bytes.Buffer
			if err := surf.EncodePNG(&buf); err != nil {
				return fmt.Errorf("encode floor %d: %w", f, err)
			}
			out[FloorArtifact(f)] = buf.Bytes()
		}
	}
	if wantGIF {
		var buf bytes.Buffer
		if err := rec.Encode(&buf, opts.FrameStep()); err != nil {
			return fmt.Errorf("encode gif: %w", err)
		}
		out[ArtifactGIF] = buf.Bytes()
	}
	return nil
}

// newSurface creates a fresh surface for floor, with its floor plan if one
// is configured. Floor plans are decoded once per runner.
func (r *Runner) newSurface(floor int) (*render.Surface, error) {
	cfg := r.Config.SurfaceConfig(floor)
	bg, err := r.background(floor, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	cfg.Background = bg
	return render.NewSurface(cfg)
}

func (r *Runner) background(floor, w, h int) (image.Image, error) {
	path := r.Config.Floor(floor).Background
	if path == "" {
		return nil, nil
	}

	r.bgMu.Lock()
	defer r.bgMu.Unlock()
	if img, ok := r.backgrounds[floor]; ok {
		return img, nil
	}
	img, err := render.LoadBackground(path, w, h)
	if err != nil {
		return nil, err
	}
	r.backgrounds[floor] = img
	return img, nil
}

func distinct(floors []int) []int {
	var out []int
	for _, f := range floors {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
