package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/cache"
	"github.com/simonhull/firebird-suite/magpie/pkg/config"
	"github.com/simonhull/firebird-suite/magpie/pkg/graph"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
	"github.com/simonhull/firebird-suite/magpie/pkg/s3store"
	"github.com/simonhull/firebird-suite/magpie/pkg/source"
)

// overrides are command-line values that replace config file values when set.
type overrides struct {
	version string
	output  string
	workers int
}

// loadConfig reads the config, applies overrides and the configured log
// level, and validates the result again.
func loadConfig(o overrides) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if o.version != "" {
		cfg.Version = o.version
	}
	if o.output != "" {
		cfg.Output = o.output
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !flags.verbose && cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.Default().SetLevel(level)
	}

	output.Verbose(fmt.Sprintf("Loaded %s (version %s, %d namespaces)", flags.configPath, cfg.Version, len(cfg.Namespaces)))
	return cfg, nil
}

// outputDir resolves --out against the working directory and the config
// value against the config directory.
func outputDir(cfg *config.Config, o overrides) string {
	if o.output != "" {
		return o.output
	}
	return cfg.Path(cfg.Output)
}

// objectStore connects to the configured S3-compatible server.
func objectStore(cfg *config.Config) (*s3store.Store, error) {
	store, err := s3store.New(cfg.S3())
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return store, nil
}

// deriveGraph loads every namespace and expands the edge set.
func deriveGraph(ctx context.Context, cfg *config.Config, refresh bool) ([]graph.DerivedRelation, error) {
	cacheDir := cfg.Path(cfg.CacheDir)
	store, err := cache.Load(filepath.Join(cacheDir, cache.DefaultFile))
	if err != nil {
		return nil, err
	}

	opts := source.Options{
		CacheDir: cacheDir,
		Store:    store,
		Refresh:  refresh,
		Logger:   logger.Default().WithFields(logger.F("component", "source")),
	}
	if cfg.UsesS3() {
		objects, err := objectStore(cfg)
		if err != nil {
			return nil, err
		}
		opts.Objects = objects
	}

	loader, err := source.NewLoader(opts)
	if err != nil {
		return nil, err
	}

	namespaces, err := cfg.SourceNamespaces()
	if err != nil {
		return nil, err
	}

	inputs, err := loader.Load(ctx, namespaces)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	if err := graph.Validate(inputs); err != nil {
		return nil, err
	}

	for _, in := range inputs {
		classes, fields, methods := in.Relation.Counts()
		output.Step(fmt.Sprintf("%-10s %6d classes %6d fields %6d methods", in.Name, classes, fields, methods))
	}

	return graph.Expand(inputs), nil
}
