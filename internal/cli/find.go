package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// findCommand creates the find command for resolving destination queries.
func (c *CLI) findCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "List the nodes a destination query matches",
		Long: `List the nodes a destination query matches.

A query matches a node id exactly, every member of an alias category, or
every node whose name contains it (case-insensitive). The node a route to
the query would end at is marked; with several candidates that is the one
with the cheapest route from --from (default: the configured start).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateQuery(args[0]); err != nil {
				return err
			}
			return c.runFind(cmd.Context(), args[0], from)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "origin used to pick the nearest candidate")

	return cmd
}

func (c *CLI) runFind(ctx context.Context, query, from string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := runner.LoadBuilding(ctx)
	if err != nil {
		return err
	}

	candidates := route.NewLocalResolver(g, route.WithAliases(cfg.Aliases)).Candidates(query)
	if len(candidates) == 0 {
		return errors.Wrap(errors.ErrCodeNodeNotFound, route.ErrUnresolved, "%q", query)
	}

	if from == "" {
		from = cfg.Start
	}
	chosen := ""
	if from != "" && g.Has(from) {
		if chosen, err = runner.Resolve(ctx, g, from, query); err != nil {
			loggerFromContext(ctx).Warn("no candidate is reachable", "from", from, "err", err)
		}
	}

	printSuccess("%d match(es) for %q", len(candidates), query)
	for _, id := range candidates {
		n, _ := g.Node(id)
		line := fmt.Sprintf("%-20s floor %-3d %s", n.ID, n.Floor, n.Name)
		if id == chosen {
			fmt.Println(StyleHighlight.Render(iconArrow+" "+line) + StyleDim.Render("  (nearest from "+from+")"))
			continue
		}
		fmt.Println("  " + StyleValue.Render(line))
	}
	if chosen != "" {
		printNewline()
		printNextStep("Route", fmt.Sprintf("%s route %s %s", appName, from, chosen))
	}
	return nil
}
