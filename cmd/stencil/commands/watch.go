package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/adapters/detector" //nolint:depguard // Output mode is a CLI concern
	"go.trai.ch/stencil/internal/adapters/tui"      //nolint:depguard // Dashboard is a CLI concern
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index current and report every batch until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("metrics-addr")
			outputFlag, _ := cmd.Flags().GetString("output")
			asJSON, _ := cmd.Flags().GetBool("json")

			opts := app.WatchOptions{
				Cwd:         queryOptions(cmd).Cwd,
				MetricsAddr: addr,
			}

			mode := detector.ResolveMode(detector.DetectEnvironment(cmd.OutOrStdout()), outputFlag)
			if mode == detector.ModeTUI && !asJSON {
				return c.watchDashboard(cmd, opts)
			}

			r := c.renderer(cmd)
			opts.OnPublish = func(pub domain.Publication) error {
				return r.Publication(pub)
			}
			return c.app.Watch(cmd.Context(), opts)
		},
	}
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9464")
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, tui, linear")
	return cmd
}

// watchDashboard runs the watch loop behind the interactive dashboard.
// Quitting the dashboard stops watching and vice versa.
func (c *CLI) watchDashboard(cmd *cobra.Command, opts app.WatchOptions) error {
	root, err := c.app.Root(opts.Cwd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewModel(cmd.OutOrStdout(), root)
	renderer := tui.NewRenderer(&model,
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	opts.OnPublish = renderer.OnPublish

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return renderer.Wait()
	})
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		return c.app.Watch(gctx, opts)
	})
	return g.Wait()
}
