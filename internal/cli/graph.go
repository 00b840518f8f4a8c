package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/render/nodelink"
)

const (
	graphDOT  = "dot"
	graphSVG  = "svg"
	graphPDF  = "pdf"
	graphPNG  = "png"
	graphJSON = "json"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	format   string
	output   string
	detailed bool
	from     string // highlight the route from..to when both are set
	to       string
	scale    float64
}

// graphCommand creates the graph command for rendering the building graph.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: graphSVG, scale: 1}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the building graph for debugging",
		Long: `Render the building graph as a node-link diagram.

Each floor becomes a cluster and edges between floors are dashed. With --to
the route from --from (default: the configured start) is drawn bold.

The json format writes the canonical building document instead, with sorted
nodes and neighbor lists.

The pdf and png formats require librsvg (rsvg-convert).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case graphDOT, graphSVG, graphPDF, graphPNG, graphJSON:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'dot', 'svg', 'pdf', 'png' or 'json')", opts.format)
			}
			return c.runGraph(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot, pdf, png, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add names and coordinates to the labels")
	cmd.Flags().StringVar(&opts.from, "from", "", "route origin to highlight")
	cmd.Flags().StringVar(&opts.to, "to", "", "route destination to highlight")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "png resolution scale")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts graphOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := runner.LoadBuilding(ctx)
	if err != nil {
		return err
	}

	var highlight []string
	if opts.to != "" {
		from := opts.from
		if from == "" {
			from = cfg.Start
		}
		goal, err := runner.Resolve(ctx, g, from, opts.to)
		if err != nil {
			return err
		}
		rt, err := runner.Route(ctx, g, from, goal, false)
		if err != nil {
			return err
		}
		highlight = rt.Path
	}

	data, err := renderGraph(g, opts, highlight)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", opts.output, err)
	}
	printSuccess("Graph rendered")
	printFile(opts.output)
	printGraphStats(g)
	return nil
}

func renderGraph(g *building.Graph, opts graphOpts, highlight []string) ([]byte, error) {
	if opts.format == graphJSON {
		return building.MarshalJSON(g)
	}
	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed, Highlight: highlight})
	switch opts.format {
	case graphDOT:
		return []byte(dot), nil
	case graphPDF:
		return nodelink.RenderPDF(dot)
	case graphPNG:
		return nodelink.RenderPNG(dot, opts.scale)
	default:
		return nodelink.RenderSVG(dot)
	}
}
