package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/store"
)

// storeCommand creates the building store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage buildings in the MongoDB store",
		Long: `Manage buildings in the MongoDB store.

The connection is configured in the [store] section of the config file, or
with the WAYFINDER_MONGO_URI environment variable.`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file> [name]",
		Short: "Upload a building document",
		Long: `Upload a building document. The name defaults to the file name without
its extension.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			if len(args) == 2 {
				name = args[1]
			}
			if err := errors.ValidateNodeID(name); err != nil {
				return fmt.Errorf("name: %w", err)
			}
			if err := errors.ValidatePath(args[0]); err != nil {
				return err
			}

			g, diags, err := building.Load(args[0])
			if err != nil {
				return err
			}
			for _, d := range diags {
				c.Logger.Warn("building diagnostic", "code", d.Code, "msg", d.Message)
			}

			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				if err := s.Save(ctx, name, g); err != nil {
					return err
				}
				printSuccess("Stored building %s", name)
				printGraphStats(g)
				return nil
			})
		},
	}
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Download a building document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				g, diags, err := s.Load(ctx, args[0])
				if err != nil {
					return err
				}
				for _, d := range diags {
					c.Logger.Warn("building diagnostic", "code", d.Code, "msg", d.Message)
				}

				if output == "" {
					return building.WriteJSON(os.Stdout, g)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				if err := building.WriteJSON(f, g); err != nil {
					return err
				}
				printSuccess("Fetched building %s", args[0])
				printFile(output)
				printNewline()
				printNextStep("Route", fmt.Sprintf("%s route -b %s <from> <to>", appName, output))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored buildings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				names, err := s.List(ctx)
				if err != nil {
					return err
				}
				if len(names) == 0 {
					printInfo("Store is empty")
					return nil
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			})
		},
	}
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, s store.Store) error {
				if err := s.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted building %s", args[0])
				return nil
			})
		},
	}
}

// withStore opens the configured store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(cctx); err != nil {
			c.Logger.Debug("close store", "err", err)
		}
	}()
	return fn(ctx, s)
}

func storeConfig(cfg config.Config) store.Config {
	sc := store.Config{
		URI:        cfg.Store.MongoURI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
	}
	if uri := os.Getenv("WAYFINDER_MONGO_URI"); uri != "" {
		sc.URI = uri
	}
	return sc
}
