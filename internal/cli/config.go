package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/syncaccess/internal/config"
)

func newConfigCommand(global *globalFlags) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Long: `Print the settings syncaccess would run with, as TOML.

Defaults, the settings file and SYNCACCESS_* environment variables are
merged in that order. Use --defaults to print only the built-in values,
which makes a starting point for a settings file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if !defaults {
				var err error
				if cfg, err = config.NewLoader(global.configPath).Load(); err != nil {
					return err
				}
			}
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print the built-in defaults only")
	return cmd
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "syncaccess %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Built: %s\n", info.Date)
		},
	}
}
