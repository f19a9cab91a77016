package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/core/domain"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <kind> <name>",
		Short: "Show which file implements a template, layout or partial",
		Long: "Show the effective implementation of a logical name and every candidate " +
			"it overrides, highest priority first.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			res, err := c.app.Resolve(cmd.Context(), queryOptions(cmd), kind, args[1])
			if err != nil {
				return err
			}
			if err := c.renderer(cmd).Resolution(res.Key, res.Effective, res.Candidates); err != nil {
				return err
			}
			if res.Effective == nil {
				return domain.ErrNotResolved
			}
			return nil
		},
	}
}
