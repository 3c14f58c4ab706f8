// Package source acquires the mapping files that make up each namespace and
// parses them into relations keyed by obfuscated names.
//
// A location is a local path, an http(s) URL or an s3://bucket/key URL.
// Remote files are copied into the cache directory and recorded in a
// cache.Store, so later runs read the local copy. Parsed relations are kept
// in an LRU keyed by file content, format and filters.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/simonhull/firebird-suite/magpie/pkg/cache"
	"github.com/simonhull/firebird-suite/magpie/pkg/format"
	"github.com/simonhull/firebird-suite/magpie/pkg/graph"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
	"github.com/simonhull/firebird-suite/magpie/pkg/s3store"
)

// Source is one file contributing to a namespace.
type Source struct {
	Location string
	Format   format.Kind
	Preset   Preset
	Exclude  []string
}

// Namespace is a target namespace built by layering its sources in order.
type Namespace struct {
	Name    string
	Sources []Source
}

// ObjectGetter downloads objects for s3:// locations. *s3store.Store
// implements it.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Options configures a Loader.
type Options struct {
	// CacheDir receives downloaded files. Required when any source is remote.
	CacheDir string

	// Store records downloads. Nil disables reuse across runs.
	Store *cache.Store

	// Refresh fetches remote sources again even when a cached copy exists.
	// HTTP fetches send the recorded ETag and keep the copy on 304.
	Refresh bool

	HTTPClient *http.Client
	Objects    ObjectGetter
	Logger     logger.Logger

	// CacheSize bounds the parsed relation cache. Default: 64
	CacheSize int
}

// Loader turns namespace definitions into relations.
type Loader struct {
	opts   Options
	log    logger.Logger
	parsed *lru.Cache[string, mapping.Relation]
}

// NewLoader creates a loader.
func NewLoader(opts Options) (*Loader, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	parsed, err := lru.New[string, mapping.Relation](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create relation cache: %w", err)
	}

	return &Loader{opts: opts, log: log, parsed: parsed}, nil
}

// Load builds one relation per namespace, in order. Each namespace starts
// from its first source and layers the rest on with AndThen. Once every
// namespace has loaded, records for locations no source names any more are
// pruned and the metadata store is saved.
func (l *Loader) Load(ctx context.Context, namespaces []Namespace) ([]graph.NamedRelation, error) {
	out := make([]graph.NamedRelation, 0, len(namespaces))

	for _, ns := range namespaces {
		if len(ns.Sources) == 0 {
			return nil, fmt.Errorf("namespace %s: no sources", ns.Name)
		}

		var rel mapping.Relation
		for i, src := range ns.Sources {
			r, err := l.LoadSource(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
			if i == 0 {
				rel = r
			} else {
				rel = rel.AndThen(r)
			}
		}

		classes, fields, methods := rel.Counts()
		l.log.Info("Loaded namespace",
			logger.F("namespace", ns.Name),
			logger.F("sources", len(ns.Sources)),
			logger.F("classes", classes),
			logger.F("fields", fields),
			logger.F("methods", methods))

		out = append(out, graph.NamedRelation{Name: ns.Name, Relation: rel})
	}

	if l.opts.Store != nil {
		l.prune(namespaces)
		if err := l.opts.Store.Save(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// prune drops download records, and their cached files, for locations that
// none of the namespaces reference.
func (l *Loader) prune(namespaces []Namespace) {
	used := make(map[string]bool)
	for _, ns := range namespaces {
		for _, src := range ns.Sources {
			used[src.Location] = true
		}
	}

	for _, location := range l.opts.Store.Keys() {
		if used[location] {
			continue
		}
		l.forget(location)
		l.log.Debug("Pruned cache entry", logger.F("location", location))
	}
}

// forget removes the record for location and its cached file.
func (l *Loader) forget(location string) {
	if e, ok := l.opts.Store.Get(location); ok && e.File != "" && l.opts.CacheDir != "" {
		err := os.Remove(filepath.Join(l.opts.CacheDir, e.File))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.log.Warn("Could not remove cached file", logger.F("file", e.File), logger.Err(err))
		}
	}
	l.opts.Store.Delete(location)
}

// LoadSource reads and parses a single source.
func (l *Loader) LoadSource(ctx context.Context, src Source) (mapping.Relation, error) {
	data, err := l.read(ctx, src.Location)
	if err != nil {
		return mapping.Relation{}, err
	}

	key := parsedKey(data, src)
	if r, ok := l.parsed.Get(key); ok {
		l.log.Debug("Parsed relation cache hit", logger.F("location", src.Location))
		return r, nil
	}

	lines, err := format.ReadLines(bytes.NewReader(data))
	if err != nil {
		return mapping.Relation{}, fmt.Errorf("read %s: %w", src.Location, err)
	}
	before := len(lines)
	lines = filterLines(lines, src.Preset, src.Exclude)
	if dropped := before - len(lines); dropped > 0 {
		l.log.Debug("Dropped filtered lines",
			logger.F("location", src.Location),
			logger.F("count", dropped))
	}

	r, err := format.ParseLines(src.Format, lines)
	if err != nil {
		return mapping.Relation{}, fmt.Errorf("parse %s: %w", src.Location, err)
	}

	l.parsed.Add(key, r)
	return r, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 || u.Scheme == "file" {
		// Plain paths, Windows drive letters and file:// URLs.
		p := location
		if err == nil && u.Scheme == "file" {
			p = u.Path
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		return data, nil
	}

	switch u.Scheme {
	case "http", "https", "s3":
		return l.readRemote(ctx, location, u)
	default:
		return nil, fmt.Errorf("source %s: unsupported scheme %q", location, u.Scheme)
	}
}

// readRemote serves a remote location from the cache directory when a
// matching copy is recorded, and downloads it otherwise.
func (l *Loader) readRemote(ctx context.Context, location string, u *url.URL) ([]byte, error) {
	if l.opts.CacheDir == "" {
		return nil, fmt.Errorf("source %s: cache directory is required for remote sources", location)
	}

	var (
		entry  cache.Entry
		cached []byte
	)
	if l.opts.Store != nil {
		if e, ok := l.opts.Store.Get(location); ok {
			if data, err := l.readCached(e); err == nil {
				entry, cached = e, data
			} else {
				l.log.Warn("Cached copy unusable, fetching again",
					logger.F("location", location),
					logger.Err(err))
				l.forget(location)
			}
		}
	}

	if cached != nil && !l.opts.Refresh {
		l.log.Debug("Using cached source", logger.F("location", location), logger.F("file", entry.File))
		return cached, nil
	}

	var (
		data []byte
		etag string
		err  error
	)
	switch u.Scheme {
	case "s3":
		data, err = l.fetchS3(ctx, location)
	default:
		data, etag, err = l.fetchHTTP(ctx, location, entry.ETag, cached != nil)
		if err == nil && data == nil {
			l.log.Debug("Source not modified", logger.F("location", location))
			return cached, nil
		}
	}
	if err != nil {
		return nil, err
	}

	file := cacheFileName(location, u)
	if err := os.MkdirAll(l.opts.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.opts.CacheDir, file), data, 0644); err != nil {
		return nil, fmt.Errorf("cache %s: %w", location, err)
	}

	if l.opts.Store != nil {
		l.opts.Store.Set(location, cache.Entry{
			File:      file,
			SHA256:    digest(data),
			ETag:      etag,
			FetchedAt: time.Now().UTC(),
		})
	}

	l.log.Info("Fetched source",
		logger.F("location", location),
		logger.F("bytes", len(data)))
	return data, nil
}

func (l *Loader) readCached(e cache.Entry) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.opts.CacheDir, e.File))
	if err != nil {
		return nil, err
	}
	if digest(data) != e.SHA256 {
		return nil, errors.New("checksum mismatch")
	}
	return data, nil
}

// fetchHTTP downloads location. A nil body with a nil error means the server
// answered 304 to the conditional request.
func (l *Loader) fetchHTTP(ctx context.Context, location, etag string, conditional bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", location, err)
	}
	if conditional && etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && conditional:
		return nil, etag, nil
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", location, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, resp.Header.Get("ETag"), nil
}

func (l *Loader) fetchS3(ctx context.Context, location string) ([]byte, error) {
	if l.opts.Objects == nil {
		return nil, fmt.Errorf("fetch %s: no s3 client configured", location)
	}
	bucket, key, err := s3store.ParseURL(location)
	if err != nil {
		return nil, err
	}
	data, err := l.opts.Objects.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// cacheFileName keeps the remote base name readable and prefixes a hash of
// the full location so different URLs never collide.
func cacheFileName(location string, u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = "source"
	}
	return digest([]byte(location))[:12] + "-" + base
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parsedKey(data []byte, src Source) string {
	return strings.Join([]string{
		digest(data),
		string(src.Format),
		string(src.Preset),
		strings.Join(src.Exclude, "\x00"),
	}, "|")
}
