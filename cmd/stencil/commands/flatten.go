package commands

import (
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/zerr"
)

func (c *CLI) newFlattenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten <file>",
		Short: "Print the heading outline of a file with every inclusion expanded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.FlattenOptions{QueryOptions: queryOptions(cmd), File: args[0]}

			if stdin, _ := cmd.Flags().GetBool("stdin"); stdin {
				text, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return zerr.Wrap(err, "failed to read unsaved text")
				}
				opts.Text = text
			}

			res, err := c.app.Flatten(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.renderer(cmd).Outline(res)
		},
	}
	cmd.Flags().Bool("stdin", false, "Read the file's unsaved content from standard input")
	return cmd
}
