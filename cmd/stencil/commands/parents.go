package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/core/domain"
)

func (c *CLI) newParentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parents <name>",
		Short: "List every file that includes a logical name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := c.app.Parents(cmd.Context(), queryOptions(cmd), args[0])
			if err != nil {
				return err
			}
			name := domain.LogicalName(args[0])
			if len(sites) > 0 {
				name = sites[0].Name
			}
			return c.renderer(cmd).Callsites(name, sites)
		},
	}
}
