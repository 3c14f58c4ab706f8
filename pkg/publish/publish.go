// Package publish uploads an emitted version directory to an object store.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
)

// ObjectStore stores objects and lists what is already stored.
// *s3store.Store implements it.
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Result describes one published version.
type Result struct {
	// Keys are the uploaded keys, sorted.
	Keys []string

	// Replaced counts uploads that overwrote an existing object.
	Replaced int

	// Stale lists keys under the version that this upload did not write,
	// such as files for a namespace that was removed. They are left alone.
	Stale []string
}

// Publisher uploads files under a key prefix.
type Publisher struct {
	objects ObjectStore
	prefix  string
	log     logger.Logger
}

// New returns a publisher writing keys below prefix. An empty prefix writes
// at the bucket root.
func New(objects ObjectStore, prefix string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Default()
	}
	return &Publisher{
		objects: objects,
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
		log:     log,
	}
}

// PublishDir uploads every regular file below dir. Keys are
// "<prefix>/<version>/<relative path>" with forward slashes. On failure the
// result holds the keys uploaded before it.
func (p *Publisher) PublishDir(ctx context.Context, version, dir string) (Result, error) {
	var res Result
	var files []string
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)

	versionPrefix := p.key(version, "")
	existing, err := p.objects.List(ctx, versionPrefix)
	if err != nil {
		return res, fmt.Errorf("list %s: %w", versionPrefix, err)
	}
	previous := make(map[string]bool, len(existing))
	for _, rel := range existing {
		previous[rel] = true
	}

	res.Keys = make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return res, err
		}
		rel = filepath.ToSlash(rel)
		key := p.key(version, rel)

		data, err := os.ReadFile(file)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", file, err)
		}
		if err := p.objects.Put(ctx, key, data, contentType(file)); err != nil {
			return res, fmt.Errorf("upload %s: %w", file, err)
		}

		p.log.Debug("Uploaded", logger.F("key", key), logger.F("bytes", len(data)))
		res.Keys = append(res.Keys, key)
		if previous[rel] {
			res.Replaced++
			delete(previous, rel)
		}
	}

	for _, rel := range existing {
		if previous[rel] {
			res.Stale = append(res.Stale, p.key(version, rel))
		}
	}

	p.log.Info("Published mappings",
		logger.F("version", version),
		logger.F("objects", len(res.Keys)),
		logger.F("replaced", res.Replaced),
		logger.F("stale", len(res.Stale)))
	return res, nil
}

func (p *Publisher) key(version, rel string) string {
	parts := make([]string, 0, 3)
	if p.prefix != "" {
		parts = append(parts, p.prefix)
	}
	return path.Join(append(parts, version, rel)...)
}

func contentType(file string) string {
	if filepath.Ext(file) == ".json" {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}
