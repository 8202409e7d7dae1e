// Package cli implements the syncaccess command line.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/syncaccess/internal/app"
)

// VersionInfo is stamped into the binary at build time.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	watch      bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		LogLevel:   g.logLevel,
		Watch:      g.watch,
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "syncaccess",
		Short: "Thread-safe access to a single-threaded widget toolkit",
		Long: `syncaccess builds widget trees through access nodes that may be used
from any goroutine. Every operation is marshalled to the UI goroutine,
and widgets are created lazily once their parent exists.

Scenes are described in YAML and can be driven from Lua scripts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "settings file (TOML)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.watch, "watch", false, "reload the settings file when it changes")

	root.AddCommand(
		newRunCommand(&flags),
		newScriptCommand(&flags),
		newConfigCommand(&flags),
		newVersionCommand(info),
	)
	return root
}

// Execute runs the command line with args.
func Execute(ctx context.Context, info VersionInfo, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(info)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
