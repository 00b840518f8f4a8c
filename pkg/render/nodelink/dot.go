package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the display name and floor-local coordinates to labels.
	// When false, only the node ID is shown.
	Detailed bool

	// Highlight is a route (ordered node ids) whose edges are drawn bold.
	Highlight []string
}

// ToDOT converts a building graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Each floor becomes a cluster. Every undirected edge is emitted once; edges
// between floors are dashed.
func ToDOT(g *building.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	onRoute := routeEdges(opts.Highlight)

	for _, f := range g.Floors() {
		fmt.Fprintf(&buf, "  subgraph \"cluster_floor_%d\" {\n", f)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("Floor %d", f))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range g.NodesOnFloor(f) {
			attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
			if onRoute.node[n.ID] {
				attrs = append(attrs, "fillcolor=\"#dbeafe\"")
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool)
	for _, a := range g.IDs() {
		for _, b := range g.Neighbors(a) {
			key := edgeKey(a, b)
			if seen[key] {
				continue
			}
			seen[key] = true

			var attrs []string
			na, _ := g.Node(a)
			nb, _ := g.Node(b)
			if na.Floor != nb.Floor {
				attrs = append(attrs, "style=dashed", "constraint=false")
			}
			if onRoute.edge[key] {
				attrs = append(attrs, "color=\"#2563eb\"", "penwidth=3")
			}
			if len(attrs) == 0 {
				fmt.Fprintf(&buf, "  %q -- %q;\n", a, b)
			} else {
				fmt.Fprintf(&buf, "  %q -- %q [%s];\n", a, b, strings.Join(attrs, ", "))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n building.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{n.ID}
	if n.Name != n.ID {
		parts = append(parts, n.Name)
	}
	parts = append(parts, fmt.Sprintf("(%s, %s)",
		strconv.FormatFloat(n.Pos.X, 'f', -1, 64),
		strconv.FormatFloat(n.Pos.Y, 'f', -1, 64)))
	return strings.Join(parts, "\n")
}

type highlight struct {
	node map[string]bool
	edge map[[2]string]bool
}

func routeEdges(path []string) highlight {
	h := highlight{node: make(map[string]bool), edge: make(map[[2]string]bool)}
	for i, id := range path {
		h.node[id] = true
		if i > 0 {
			h.edge[edgeKey(path[i-1], id)] = true
		}
	}
	return h
}

func edgeKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
