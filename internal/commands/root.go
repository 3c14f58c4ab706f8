package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/magpie"
	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/config"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose    bool
	configPath string
}

var flags globalFlags

// RootCmd creates and returns the root command for the magpie CLI
func RootCmd() *cobra.Command {
	flags = globalFlags{}

	cmd := &cobra.Command{
		Use:   "magpie",
		Short: "Build and publish cross-namespace mapping tables",
		Long: `Magpie collects obfuscated-to-named mapping tables for one program version,
derives the mapping between every pair of namespaces, and writes each one as
SRG, CSRG and TSRG files plus a merged tiny table and a JSON summary.

Namespaces and their source files are listed in magpie.yml. Sources may be
local files, http(s) URLs or s3://bucket/key objects.`,
		Version:       magpie.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetWriter(cmd.OutOrStdout())
			output.SetErrorWriter(cmd.ErrOrStderr())
			output.SetVerbose(flags.verbose)

			level := logger.LevelWarn
			if flags.verbose {
				level = logger.LevelDebug
			}
			logger.SetDefault(logger.NewLogger(level, cmd.ErrOrStderr()))
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultFile, "Path to configuration file")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Magpie v%s\n", magpie.Version)
		},
	})

	return cmd
}

// Execute builds the full command tree and runs it, printing any error.
func Execute() error {
	root := RootCmd()
	root.AddCommand(InitCmd(), GenerateCmd(), CheckCmd(), InspectCmd())
	return execute(root)
}

func execute(root *cobra.Command) error {
	output.SetErrorWriter(root.ErrOrStderr())
	if err := root.Execute(); err != nil {
		output.Error(err.Error())
		return err
	}
	return nil
}
