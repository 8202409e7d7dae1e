package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/syncaccess/internal/access"
	"github.com/dshills/syncaccess/internal/app"
	"github.com/dshills/syncaccess/internal/scene"
)

type screenFlags struct {
	simulate bool
	headless bool
}

func (s *screenFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.simulate, "simulate", false, "draw to an in-memory screen and print it on exit")
	cmd.Flags().BoolVar(&s.headless, "headless", false, "use the in-memory toolkit with no screen")
	cmd.MarkFlagsMutuallyExclusive("simulate", "headless")
}

func (s *screenFlags) apply(cmd *cobra.Command, opts *app.Options) {
	opts.Simulate = s.simulate
	opts.Headless = s.headless
	if !s.interactive() {
		opts.LogOutput = cmd.ErrOrStderr()
	}
}

// interactive reports whether the command owns a real terminal.
func (s *screenFlags) interactive() bool {
	return !s.simulate && !s.headless
}

func newRunCommand(global *globalFlags) *cobra.Command {
	var (
		screen     screenFlags
		concurrent bool
		asJSON     bool
		query      string
	)

	cmd := &cobra.Command{
		Use:   "run <scene.yaml>",
		Short: "Build a scene and show it",
		Long: `Build the widget tree described by a YAML scene.

On a terminal the scene stays up until Esc, Ctrl-C or Ctrl-Q.
With --simulate the scene is drawn once to an in-memory screen and printed.
With --headless the widget tree is printed instead, or as JSON with
--json. --query prints one value of that JSON, using gjson path syntax:

  syncaccess run --headless --query 'nodes.#(id=="ok").size' scene.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scene.LoadFile(args[0])
			if err != nil {
				return err
			}

			opts := global.options()
			screen.apply(cmd, &opts)
			a, err := app.New(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			log := a.Logger().WithComponent("run")
			buildOpts := []scene.BuildOption{scene.WithEventHandler(func(id string, ev access.Event) {
				log.Info("%s: %s", id, ev.Type)
				a.Refresh()
			})}
			if concurrent {
				buildOpts = append(buildOpts, scene.WithConcurrentAttach())
			}

			return runApp(cmd.Context(), a, cmd.OutOrStdout(), screen, func(ctx context.Context) (report, error) {
				sc, err := scene.Build(ctx, a.Env(), doc, buildOpts...)
				if err != nil {
					return nil, err
				}
				log.Info("built scene %q with %d nodes", doc.Shell.ID, len(sc.IDs()))
				if asJSON || query != "" {
					return exportReport(sc, query), nil
				}
				return treeReport(&sc.Shell.Composite), nil
			})
		},
	}
	screen.bind(cmd)
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "attach nodes to their parents from concurrent goroutines")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the headless result as JSON")
	cmd.Flags().StringVar(&query, "query", "", "print one value of the JSON result")
	return cmd
}

// report renders the headless result of a command.
type report func(ctx context.Context) (string, error)

func treeReport(root *access.Composite) report {
	return root.Tree
}

func exportReport(sc *scene.Scene, query string) report {
	return func(ctx context.Context) (string, error) {
		data, err := sc.Export(ctx)
		if err != nil {
			return "", err
		}
		if query == "" {
			return string(pretty.Pretty(data)), nil
		}
		res := gjson.GetBytes(data, query)
		if !res.Exists() {
			return "", fmt.Errorf("query %q matched nothing", query)
		}
		return res.String() + "\n", nil
	}
}

// runApp runs build on the application and then presents the result the
// way the screen flags ask for.
func runApp(ctx context.Context, a *app.Application, out io.Writer, screen screenFlags, build func(context.Context) (report, error)) error {
	err := a.Run(ctx, func(ctx context.Context) error {
		rep, err := build(ctx)
		if err != nil {
			return err
		}

		switch {
		case screen.interactive():
			a.Refresh()
			<-ctx.Done()
			return nil
		case screen.simulate:
			return a.Render(ctx)
		default:
			if rep == nil {
				return nil
			}
			text, err := rep(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, text)
			return err
		}
	})
	if err != nil {
		return quitIsSuccess(err)
	}

	if screen.simulate {
		_, err = fmt.Fprintln(out, strings.Join(a.Screen().Snapshot(), "\n"))
	}
	return err
}

func quitIsSuccess(err error) error {
	if errors.Is(err, app.ErrQuit) {
		return nil
	}
	return err
}
