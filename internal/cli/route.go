package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// routeCommand creates the route command for computing and rendering a route.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "route [from] <to>",
		Short: "Compute a route and render it per floor",
		Long: `Compute the shortest route between two nodes and render it.

The destination may be a node id, an alias category from the config (e.g.
"toilet", resolved to the nearest member) or part of a node name. With a
single argument the route starts at the configured start node.

Outputs are written to the output directory:
  png   one floor-N.png per floor the route visits, fully drawn
  gif   route.gif, the animation segment by segment
  json  route.json, the path with cost and per-floor segments
  svg   graph.svg, the building graph with the route highlighted

Results are cached locally for faster subsequent runs.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.To = args[len(args)-1]
			if len(args) == 2 {
				opts.From = args[0]
			}
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRoute(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), gif, json, svg (comma-separated)")
	cmd.Flags().IntVar(&opts.FPS, "fps", pipeline.DefaultFPS, "frames per second of the GIF animation")
	cmd.Flags().BoolVar(&opts.ShowNodes, "nodes", false, "draw every node on the rendered floors")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute instead of reading the cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRoute executes the pipeline and writes the artifacts.
func (c *CLI) runRoute(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinner(ctx, os.Stderr, routingMessage(opts))
	spinner.Start()

	result, err := runner.Execute(ctx, nil, opts)
	if err != nil {
		spinner.Fail("Routing failed", err)
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	rt := result.Route
	prog.done("routed", "from", rt.From, "to", rt.To, "floors", len(rt.Segments))

	paths, err := writeArtifacts(result.Artifacts, output)
	if err != nil {
		return err
	}

	printSuccess("Route %s %s %s", rt.From, iconArrow, rt.To)
	printRoute(rt)
	for _, p := range paths {
		printFile(p)
	}
	printRunStats(result)
	if !slices.Contains(opts.Formats, pipeline.FormatGIF) {
		printNewline()
		printNextStep("Animate", fmt.Sprintf("%s route %s %s -f gif", appName, rt.From, rt.To))
	}
	return nil
}

// routingMessage is the spinner text while the pipeline runs.
func routingMessage(opts pipeline.Options) string {
	if opts.From == "" {
		return fmt.Sprintf("Routing to %s...", opts.To)
	}
	return fmt.Sprintf("Routing %s %s %s...", opts.From, iconArrow, opts.To)
}

// writeArtifacts writes every artifact into dir and returns the paths in
// name order.
func writeArtifacts(artifacts map[string][]byte, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	slices.Sort(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, artifacts[name], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
