package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/magpie/internal/generator"
	"github.com/simonhull/firebird-suite/magpie/internal/input"
	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/config"
)

// ErrInitCancelled is returned when the user cancels at the overwrite menu.
var ErrInitCancelled = errors.New("init cancelled")

// Terminal hooks, replaced in tests.
var (
	interactive     = input.IsInteractive
	resolveConflict = func(out io.Writer, path string, existing, newer []byte) (generator.ConflictResolution, error) {
		return generator.NewResolver(out).Resolve(path, existing, newer)
	}
)

// InitCmd creates and returns the 'init' command
func InitCmd() *cobra.Command {
	var version string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter magpie.yml",
		Long: `Writes a configuration file with two example namespaces to the path
given by --config. Edit the sources before running generate.

On a terminal, init asks for the program version (unless --version is given)
and whether to publish. If the file already exists it offers to show a diff,
keep the file or overwrite it. Without a terminal an existing file is an
error unless --force is given.

Example:
  magpie init --version 1.18.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			tty := interactive()

			if tty && !cmd.Flags().Changed("version") {
				version = input.Prompt("Program version", version)
			}
			cfg := config.Scaffold(version)
			if tty {
				cfg.Publish.Enabled = input.Confirm("Publish to an S3 bucket after generate?", false)
			}

			existing, err := os.ReadFile(path)
			switch {
			case err == nil && !force:
				if !tty {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				newer, err := config.Marshal(cfg)
				if err != nil {
					return err
				}
				choice, err := resolveConflict(cmd.OutOrStdout(), path, existing, newer)
				if err != nil {
					return err
				}
				switch choice {
				case generator.Keep:
					output.Info("Kept existing " + path)
					return nil
				case generator.Cancel:
					return ErrInitCancelled
				}
			case err != nil && !os.IsNotExist(err):
				return err
			}

			if err := config.Save(path, cfg); err != nil {
				return err
			}

			output.Success("Created " + path)
			output.Step("Edit the namespaces, then run: magpie generate")
			if cfg.Publish.Enabled {
				output.Step("Set MAGPIE_PUBLISH_ACCESS_KEY and MAGPIE_PUBLISH_SECRET_KEY, for example in .env")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "1.18.1", "Program version to write")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
