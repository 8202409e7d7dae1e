package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dshills/syncaccess/internal/app"
	"github.com/dshills/syncaccess/internal/script"
)

func newScriptCommand(global *globalFlags) *cobra.Command {
	var (
		screen screenFlags
		tree   string
	)

	cmd := &cobra.Command{
		Use:   "script <file.lua>",
		Short: "Drive access nodes from a Lua script",
		Long: `Run a Lua script against a fresh set of access nodes.

The script runs off the UI goroutine, so every node call it makes goes
through the dispatcher exactly as it would from any other goroutine.
Scripts have the base, table, string and math libraries and no file or
OS access. print writes to standard output.

With --headless and --tree <id> the composite named id is printed after
the script finishes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := global.options()
			screen.apply(cmd, &opts)
			a, err := app.New(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			driver := script.NewDriver(a.Env(),
				script.WithOutput(cmd.OutOrStdout()),
				script.WithLogger(a.Logger()),
			)
			defer driver.Close()

			return runApp(cmd.Context(), a, cmd.OutOrStdout(), screen, func(ctx context.Context) (report, error) {
				if err := driver.RunFile(ctx, args[0]); err != nil {
					return nil, err
				}
				if tree == "" {
					return nil, nil
				}
				root, err := driver.Composite(tree)
				if err != nil {
					return nil, err
				}
				return treeReport(root), nil
			})
		},
	}
	screen.bind(cmd)
	cmd.Flags().StringVar(&tree, "tree", "", "composite to print when headless")
	return cmd
}
