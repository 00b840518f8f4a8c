package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/internal/server"
	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	watch     bool
	noCache   bool
	noMetrics bool
	fromStore string // load the building from the MongoDB store instead of a file
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve routes and route renders over HTTP",
		Long: `Serve routes and route renders over HTTP.

Endpoints:
  GET /healthz                              building summary
  GET /api/nodes?floor=N                    nodes with their neighbors
  GET /api/route?from=&to=                  route as JSON
  GET /api/route/floors/{floor}.png?from=&to=  one floor, fully drawn
  GET /api/route.gif?from=&to=&fps=         animated route
  GET /metrics                              Prometheus metrics

With --watch the building file is reloaded when it changes. Requests in
flight keep the building they started with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts, cmd.Flags().Changed("watch"))
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, "+config.DefaultServerAddr+")")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the building file on change")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not serve /metrics")
	cmd.Flags().StringVar(&opts.fromStore, "from-store", "", "load the named building from the store")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts, watchSet bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if watchSet {
		cfg.Server.Watch = opts.watch
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var srvOpts []server.Option
	if !opts.noMetrics {
		m := server.NewMetrics()
		m.Install()
		srvOpts = append(srvOpts, server.WithMetrics(m))
	}

	g, stop, err := c.serveGraph(ctx, runner, cfg, opts.fromStore)
	if err != nil {
		return err
	}
	srv := server.New(runner, g.Graph(), c.Logger, srvOpts...)
	if stop != nil {
		defer stop()
		g.OnChange(func(g *building.Graph, _ building.Diagnostics) { srv.SetGraph(g) })
		srv.SetGraph(g.Graph())
	}

	name := cfg.Building
	if opts.fromStore != "" {
		name = "store:" + opts.fromStore
	}
	printSuccess("Serving %s", name)
	printKeyValue("Address", cfg.Server.Addr)
	printGraphStats(srv.Graph())
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// graphSource yields the building snapshot to serve.
type graphSource interface {
	Graph() *building.Graph
	OnChange(func(*building.Graph, building.Diagnostics))
}

type staticGraph struct{ g *building.Graph }

func (s staticGraph) Graph() *building.Graph { return s.g }

func (s staticGraph) OnChange(func(*building.Graph, building.Diagnostics)) {}

// serveGraph loads the building. stop is non-nil when the file is watched.
func (c *CLI) serveGraph(ctx context.Context, runner *pipeline.Runner, cfg config.Config, fromStore string) (graphSource, func(), error) {
	if fromStore != "" {
		s, err := store.Open(ctx, storeConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(cctx)
		}()
		g, diags, err := s.Load(ctx, fromStore)
		if err != nil {
			return nil, nil, err
		}
		for _, d := range diags {
			c.Logger.Warn("building diagnostic", "code", d.Code, "msg", d.Message)
		}
		return staticGraph{g}, nil, nil
	}

	if !cfg.Server.Watch {
		g, err := runner.LoadBuilding(ctx)
		if err != nil {
			return nil, nil, err
		}
		return staticGraph{g}, nil, nil
	}

	// Validate the path and report an empty building the same way an
	// unwatched load would.
	if _, err := runner.LoadBuilding(ctx); err != nil {
		return nil, nil, err
	}
	w, err := building.NewWatcher(cfg.Building, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	stop, err := w.Watch()
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Info("watching building", "path", cfg.Building)
	return w, stop, nil
}
