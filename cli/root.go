package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astcrun/astcrun"
	"github.com/astcrun/astcrun/config"
	"github.com/astcrun/astcrun/dispatch"
)

var exitCode int

// newRootCmd builds the command tree. Tests construct their own instance so
// flag state never leaks between runs.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "astcrun <program.astc> [args...]",
		Short:        "Run an ASTC bytecode program through the platform's native execution module",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}

			var logger *zap.Logger
			verbose, _ := cmd.Flags().GetBool("verbose")
			if cfg.Verbose || verbose {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer logger.Sync()
			}

			exitCode = astcrun.Run(args[0], args[1:], astcrun.Options{
				Config: cfg,
				Logger: logger,
				Out:    cmd.OutOrStdout(),
			})
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Loader configuration file (default astcrun.toml if present)")
	flags.String("module", "pipeline", "Native module base name")
	flags.String("module-dir", "bin", "Directory searched for native modules")
	flags.StringSlice("strategy", []string{"dynlib", "mapped"}, "Ordered load strategies to try")
	flags.String("path-style", "full", "Mapped module file naming: full or legacy")
	flags.Bool("no-fallback", false, "Fail with a loader exit code instead of using the builtin interpreter")
	flags.BoolP("verbose", "v", false, "Enable loader diagnostics")

	cmd.AddCommand(inspectCmd)
	return cmd
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("module") {
		if cfg.Module, err = flags.GetString("module"); err != nil {
			return err
		}
	}
	if flags.Changed("module-dir") {
		if cfg.ModuleDir, err = flags.GetString("module-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("strategy") {
		if cfg.Strategies, err = flags.GetStringSlice("strategy"); err != nil {
			return err
		}
	}
	if flags.Changed("path-style") {
		if cfg.PathStyle, err = flags.GetString("path-style"); err != nil {
			return err
		}
	}
	if flags.Changed("no-fallback") {
		if cfg.NoFallback, err = flags.GetBool("no-fallback"); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(dispatch.ExitUsage)
	}
	os.Exit(exitCode)
}
