// Package emit renders a derived relation graph to its on-disk file set.
//
// For a version directory the file set is:
//
//	<edge>.srg    one per derived edge, identity entries stripped
//	<edge>.csrg
//	<edge>.tsrg
//	<version>.tiny  obf2<x> edges merged into one table
//	<version>.json  obf2<x> edges summarized by simple name
//
// Every per-edge file is sorted line by line before it is written, so the
// same input always produces the same bytes. Writes overwrite existing files
// and stop at the first failure without cleaning up.
package emit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/simonhull/firebird-suite/magpie/internal/generator"
	"github.com/simonhull/firebird-suite/magpie/pkg/format"
	"github.com/simonhull/firebird-suite/magpie/pkg/graph"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// Options configures Emit.
type Options struct {
	// Workers renders edges in parallel. Zero or less uses one worker per CPU.
	Workers int

	// DryRun reports the planned files without writing them.
	DryRun bool

	// Writer receives one progress line per file. Defaults to io.Discard.
	Writer io.Writer

	Logger logger.Logger
}

// WriteError reports the file a write failed on.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// VersionDir returns the directory a version's files are written to.
func VersionDir(outputDir, version string) string {
	return filepath.Join(outputDir, version)
}

// Plan builds the write operations for a version without touching the disk.
func Plan(version, outputDir string, derived []graph.DerivedRelation) ([]generator.Operation, error) {
	files, err := Files(context.Background(), version, outputDir, derived, 1)
	if err != nil {
		return nil, err
	}

	ops := make([]generator.Operation, len(files))
	for i, f := range files {
		ops[i] = f
	}
	return ops, nil
}

// Files renders every file of a version. Edges are rendered on up to workers
// goroutines; the result order is edge order followed by the tiny table and
// the JSON summary, regardless of scheduling.
func Files(ctx context.Context, version, outputDir string, derived []graph.DerivedRelation, workers int) ([]*generator.WriteFileOp, error) {
	if version == "" {
		return nil, errors.New("version is required")
	}
	dir := VersionDir(outputDir, version)

	rendered, err := renderEdges(ctx, dir, derived, workers)
	if err != nil {
		return nil, err
	}

	files := make([]*generator.WriteFileOp, 0, len(rendered)*len(format.Kinds)+2)
	for _, edgeFiles := range rendered {
		files = append(files, edgeFiles...)
	}

	tiny := format.NewTiny()
	summary := format.NewSummary(version)
	for _, d := range graph.ObfEdges(derived) {
		tiny.Add(d.To, d.Relation)
		summary.Add(d.To, d.Relation)
	}

	data, err := summary.Marshal()
	if err != nil {
		return nil, fmt.Errorf("render %s.json: %w", version, err)
	}

	files = append(files,
		writeOp(filepath.Join(dir, version+".tiny"), joinLines(tiny.Lines())),
		writeOp(filepath.Join(dir, version+".json"), data),
	)
	return files, nil
}

// Emit renders a version and writes its files, replacing any that exist.
// A failed write is returned as a *WriteError.
func Emit(ctx context.Context, version, outputDir string, derived []graph.DerivedRelation, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	w := opts.Writer
	if w == nil {
		w = io.Discard
	}

	log.Info("Rendering mappings",
		logger.F("version", version),
		logger.F("edges", len(derived)),
		logger.F("workers", opts.Workers))

	files, err := Files(ctx, version, outputDir, derived, opts.Workers)
	if err != nil {
		return err
	}

	ops := make([]generator.Operation, len(files))
	for i, f := range files {
		ops[i] = f
	}

	err = generator.Execute(ctx, ops, generator.ExecuteOptions{DryRun: opts.DryRun, Force: true, Writer: w})
	if err != nil {
		var opErr *generator.OpError
		if errors.As(err, &opErr) {
			return &WriteError{Path: opErr.Path, Err: opErr.Err}
		}
		return err
	}

	log.Info("Mappings written",
		logger.F("dir", VersionDir(outputDir, version)),
		logger.F("files", len(files)),
		logger.F("dry_run", opts.DryRun))
	return nil
}

type edgeJob struct {
	index int
	edge  graph.DerivedRelation
}

type edgeResult struct {
	index int
	files []*generator.WriteFileOp
	err   error
}

func renderEdges(ctx context.Context, dir string, derived []graph.DerivedRelation, workers int) ([][]*generator.WriteFileOp, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(derived), 1))

	jobs := make(chan edgeJob, len(derived))
	results := make(chan edgeResult, len(derived))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				files, err := renderEdge(dir, job.edge)
				results <- edgeResult{index: job.index, files: files, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, d := range derived {
			select {
			case <-ctx.Done():
				return
			case jobs <- edgeJob{index: i, edge: d}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	rendered := make([][]*generator.WriteFileOp, len(derived))
	var firstErr error
	for res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		rendered[res.index] = res.files
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return rendered, nil
}

func renderEdge(dir string, d graph.DerivedRelation) ([]*generator.WriteFileOp, error) {
	stripped := mapping.Strip(d.Relation)

	srg := sorted(format.SRGLines(stripped))
	csrg := sorted(format.CSRGLines(stripped))
	tsrg, err := format.TSRGFromSRG(srg)
	if err != nil {
		return nil, fmt.Errorf("render %s.tsrg: %w", d.Edge, err)
	}

	path := func(kind format.Kind) string {
		return filepath.Join(dir, d.Edge+kind.Extension())
	}
	return []*generator.WriteFileOp{
		writeOp(path(format.KindSRG), joinLines(srg)),
		writeOp(path(format.KindCSRG), joinLines(csrg)),
		writeOp(path(format.KindTSRG), joinLines(tsrg)),
	}, nil
}

func sorted(lines []string) []string {
	slices.Sort(lines)
	return lines
}

// joinLines terminates every line with a newline. No lines give an empty,
// non-nil file.
func joinLines(lines []string) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func writeOp(path string, content []byte) *generator.WriteFileOp {
	return &generator.WriteFileOp{Path: path, Content: content, Mode: 0644}
}
