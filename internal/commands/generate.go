package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/emit"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
	"github.com/simonhull/firebird-suite/magpie/pkg/publish"
)

// GenerateCmd creates and returns the 'generate' command
func GenerateCmd() *cobra.Command {
	var o overrides
	var dryRun, doPublish, refresh bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Load sources and write every mapping file",
		Long: `Loads each namespace from its sources, derives the mapping between every
pair of namespaces, and writes the file set to <output>/<version>/.

Existing files are overwritten. A failed write stops the run; files written
before it stay on disk.

Examples:
  magpie generate
  magpie generate --version 1.18.2 --out dist
  magpie generate --dry-run --verbose
  magpie generate --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}

			output.Info(fmt.Sprintf("Generating mappings for %s", cfg.Version))
			derived, err := deriveGraph(ctx, cfg, refresh)
			if err != nil {
				return err
			}

			outDir := outputDir(cfg, o)
			var progress io.Writer = io.Discard
			if dryRun || flags.verbose {
				progress = cmd.OutOrStdout()
			}

			err = emit.Emit(ctx, cfg.Version, outDir, derived, emit.Options{
				Workers: cfg.Workers,
				DryRun:  dryRun,
				Writer:  progress,
				Logger:  logger.Default().WithFields(logger.F("component", "emit")),
			})
			if err != nil {
				return err
			}

			versionDir := emit.VersionDir(outDir, cfg.Version)
			if dryRun {
				output.Info(fmt.Sprintf("Dry run: %d edges would be written to %s", len(derived), versionDir))
				return nil
			}
			output.Success(fmt.Sprintf("Wrote %d edges to %s", len(derived), versionDir))

			if !doPublish && !cfg.Publish.Enabled {
				return nil
			}

			store, err := objectStore(cfg)
			if err != nil {
				return err
			}
			res, err := publish.New(store, cfg.Publish.Prefix, logger.Default()).PublishDir(ctx, cfg.Version, versionDir)
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			output.Success(fmt.Sprintf("Published %d files to s3://%s (%d replaced)", len(res.Keys), store.Bucket(), res.Replaced))
			for _, key := range res.Stale {
				output.Warn("Not part of this version any more: " + key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.version, "version", "", "Program version (overrides config)")
	cmd.Flags().StringVarP(&o.output, "out", "o", "", "Output directory (overrides config)")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "Edges rendered in parallel (overrides config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show files that would be written without writing them")
	cmd.Flags().BoolVar(&doPublish, "publish", false, "Upload the version directory after writing")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch remote sources again even when cached")

	return cmd
}
