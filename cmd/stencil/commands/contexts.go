package commands

import "github.com/spf13/cobra"

func (c *CLI) newContextsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List every context and its ordered root paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sets, err := c.app.Contexts(cmd.Context(), queryOptions(cmd))
			if err != nil {
				return err
			}
			return c.renderer(cmd).Contexts(sets)
		},
	}
}
