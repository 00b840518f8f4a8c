// Package nodelink renders building graphs as node-link diagrams.
//
// The diagrams are a debugging aid: they show which nodes exist on each
// floor, which links survived graph building and which edges cross floors.
// Node positions come from Graphviz layout, not from building coordinates.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true, Highlight: res.Path})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
