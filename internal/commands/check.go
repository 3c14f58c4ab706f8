package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/magpie/internal/generator"
	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/emit"
)

// ErrDrift is returned by check when generated files differ from the disk.
var ErrDrift = errors.New("mapping files are out of date")

// CheckCmd creates and returns the 'check' command
func CheckCmd() *cobra.Command {
	var o overrides
	var refresh, showDiff bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report files that generate would change",
		Long: `Renders every mapping file in memory and compares it with the files
already on disk. Nothing is written. Exits non-zero when any file would be
added or changed, so it can guard committed mapping tables in CI.

Examples:
  magpie check
  magpie check --diff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}

			derived, err := deriveGraph(ctx, cfg, refresh)
			if err != nil {
				return err
			}

			files, err := emit.Files(ctx, cfg.Version, outputDir(cfg, o), derived, cfg.Workers)
			if err != nil {
				return err
			}

			changes, err := generator.Compare(ctx, files)
			if err != nil {
				return err
			}

			for _, c := range changes {
				switch c.Kind {
				case generator.Unchanged:
					output.Verbose("unchanged " + c.Path)
				case generator.Added:
					output.Warn("missing   " + c.Path)
				case generator.Modified:
					output.Warn("modified  " + c.Path)
					if showDiff || flags.verbose {
						output.Plain(c.Diff)
					}
				}
			}

			if generator.HasDrift(changes) {
				return fmt.Errorf("%w: run magpie generate", ErrDrift)
			}
			output.Success(fmt.Sprintf("%d files up to date", len(changes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&o.version, "version", "", "Program version (overrides config)")
	cmd.Flags().StringVarP(&o.output, "out", "o", "", "Output directory (overrides config)")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "Edges rendered in parallel (overrides config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch remote sources again even when cached")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a diff for every modified file")

	return cmd
}
