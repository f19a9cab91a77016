// Package commands implements the CLI commands for stencil.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/app"
	"go.trai.ch/stencil/internal/build"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/ui/render"
)

// CLI represents the command line interface for stencil.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	ConfigureLogging(verbose, asJSON bool)
	Root(cwd string) (string, error)
	Resolve(ctx context.Context, opts app.QueryOptions, kind domain.Kind, raw string) (*app.Resolution, error)
	Parents(ctx context.Context, opts app.QueryOptions, raw string) ([]domain.Callsite, error)
	Flatten(ctx context.Context, opts app.FlattenOptions) (*domain.FlattenResult, error)
	Contexts(ctx context.Context, opts app.QueryOptions) (map[domain.ContextID]domain.RootPathSet, error)
	Watch(ctx context.Context, opts app.WatchOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stencil",
		Short:         "Resolve, trace and flatten template overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Print results and logs as JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug logs")
	rootCmd.PersistentFlags().StringP("context", "c", "", "Context to query as site or site:mode (default: first declared)")
	rootCmd.PersistentFlags().StringP("cwd", "C", "", "Directory to discover the workspace from (default: working directory)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		asJSON, _ := cmd.Flags().GetBool("json")
		c.app.ConfigureLogging(verbose, asJSON)
	}

	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newParentsCmd())
	rootCmd.AddCommand(c.newFlattenCmd())
	rootCmd.AddCommand(c.newContextsCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetInput sets the input stream for the root command.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func queryOptions(cmd *cobra.Command) app.QueryOptions {
	cwd, _ := cmd.Flags().GetString("cwd")
	contextID, _ := cmd.Flags().GetString("context")
	return app.QueryOptions{Cwd: cwd, Context: contextID}
}

// renderer writes to the command's output, showing paths relative to the workspace root.
func (c *CLI) renderer(cmd *cobra.Command) *render.Renderer {
	asJSON, _ := cmd.Flags().GetBool("json")
	cwd, _ := cmd.Flags().GetString("cwd")
	root, err := c.app.Root(cwd)
	if err != nil {
		root = ""
	}
	return render.New(cmd.OutOrStdout(), render.Options{JSON: asJSON, Root: root})
}
