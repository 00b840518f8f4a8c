package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// pickCommand creates the pick command for choosing a destination
// interactively and routing to it.
func (c *CLI) pickCommand() *cobra.Command {
	var (
		from       string
		floor      int
		named      bool
		formatsStr string
		output     string
		printOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a destination interactively and route to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			g, err := runner.LoadBuilding(ctx)
			runner.Close()
			if err != nil {
				return err
			}

			var nodes []building.Node
			if cmd.Flags().Changed("floor") {
				nodes = g.NodesOnFloor(floor)
			} else {
				nodes = g.Nodes()
			}
			if named {
				nodes = withNames(nodes)
			}
			if len(nodes) == 0 {
				return errors.New(errors.ErrCodeNodeNotFound, "no nodes to pick from")
			}

			selected, err := pickNode(ctx, nodes)
			if err != nil {
				return err
			}
			if selected == nil {
				printDetail("No selection made")
				return nil
			}
			if printOnly {
				fmt.Println(selected.ID)
				return nil
			}

			opts := pipeline.Options{From: from, To: selected.ID, Formats: parseFormats(formatsStr)}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRoute(ctx, opts, output, false)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "route origin (default: the configured start)")
	cmd.Flags().IntVar(&floor, "floor", 0, "only list nodes on this floor")
	cmd.Flags().BoolVar(&named, "named", true, "only list nodes with a display name")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), gif, json, svg (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the picked node id instead of routing")

	return cmd
}

// pickNode runs the picker and returns the selection, or nil when the user
// quit without choosing.
func pickNode(ctx context.Context, nodes []building.Node) (*building.Node, error) {
	p := tea.NewProgram(NewNodeListModel(nodes), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := finalModel.(NodeListModel)
	if !ok {
		return nil, nil
	}
	return fm.Selected, nil
}

func withNames(nodes []building.Node) []building.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.Name != "" {
			out = append(out, n)
		}
	}
	return out
}
