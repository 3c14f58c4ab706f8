// Package config loads magpie.yml.
//
// Values come from the YAML file, then from MAGPIE_* environment variables
// (nested keys joined with '_', e.g. MAGPIE_PUBLISH_SECRET_KEY). A .env file
// next to the config file is loaded first and never overrides variables that
// are already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/magpie/pkg/format"
	"github.com/simonhull/firebird-suite/magpie/pkg/graph"
	"github.com/simonhull/firebird-suite/magpie/pkg/logger"
	"github.com/simonhull/firebird-suite/magpie/pkg/s3store"
	"github.com/simonhull/firebird-suite/magpie/pkg/source"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "magpie.yml"

var (
	ErrNotFound     = errors.New("config file not found")
	ErrNoVersion    = errors.New("version not specified")
	ErrNoNamespaces = errors.New("no namespaces configured")
)

// Config represents magpie.yml
type Config struct {
	Version    string            `yaml:"version" mapstructure:"version"`
	Output     string            `yaml:"output" mapstructure:"output"`
	CacheDir   string            `yaml:"cache_dir" mapstructure:"cache_dir"`
	Workers    int               `yaml:"workers" mapstructure:"workers"`
	LogLevel   string            `yaml:"log_level,omitempty" mapstructure:"log_level"`
	Namespaces []NamespaceConfig `yaml:"namespaces" mapstructure:"namespaces"`
	Publish    PublishConfig     `yaml:"publish" mapstructure:"publish"`

	// dir resolves relative paths; empty means the working directory.
	dir string
}

// NamespaceConfig lists the files layered to build one namespace.
type NamespaceConfig struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	Sources []SourceConfig `yaml:"sources" mapstructure:"sources"`
}

// SourceConfig is one input file. Format defaults to the path's extension.
type SourceConfig struct {
	Path    string   `yaml:"path" mapstructure:"path"`
	Format  string   `yaml:"format,omitempty" mapstructure:"format"`
	Preset  string   `yaml:"preset,omitempty" mapstructure:"preset"`
	Exclude []string `yaml:"exclude,omitempty" mapstructure:"exclude"`
}

// PublishConfig holds the S3-compatible server used for publishing. s3://
// sources are fetched with the same connection even when publishing is off.
type PublishConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint  string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Region    string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket    string `yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix    string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKey string `yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// Default returns a config with defaults and no namespaces.
func Default() *Config {
	return &Config{
		Output:   "mappings",
		CacheDir: "cache",
		Workers:  0,
		LogLevel: "info",
	}
}

// Scaffold returns the config written by `magpie init`.
func Scaffold(version string) *Config {
	cfg := Default()
	cfg.Version = version
	cfg.Namespaces = []NamespaceConfig{
		{
			Name:    "srg",
			Sources: []SourceConfig{{Path: "joined.tsrg", Format: "tsrg"}},
		},
		{
			Name: "mcp",
			Sources: []SourceConfig{
				{Path: "joined.tsrg", Format: "tsrg"},
				{Path: "srg2mcp.srg", Format: "srg"},
			},
		},
	}
	cfg.Publish = PublishConfig{Endpoint: "localhost:9000", Bucket: "mappings"}
	return cfg
}

// Load reads the config at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	dir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	v.SetEnvPrefix("MAGPIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults register every scalar key so env overrides apply even when
	// the file omits them.
	def := Default()
	v.SetDefault("version", def.Version)
	v.SetDefault("output", def.Output)
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.region", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.use_ssl", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// Marshal encodes the config as YAML, exactly as Save writes it.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks required fields, namespace names, source formats and
// presets, and the publish connection when publishing is enabled.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Version) == "" {
		return ErrNoVersion
	}
	if strings.ContainsAny(c.Version, `/\`) {
		return fmt.Errorf("version %q must not contain path separators", c.Version)
	}
	if c.Output == "" {
		return errors.New("output directory not specified")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if len(c.Namespaces) == 0 {
		return ErrNoNamespaces
	}

	names := make([]graph.NamedRelation, len(c.Namespaces))
	for i, ns := range c.Namespaces {
		names[i].Name = ns.Name
	}
	if err := graph.Validate(names); err != nil {
		return err
	}

	for _, ns := range c.Namespaces {
		if len(ns.Sources) == 0 {
			return fmt.Errorf("namespace %s: no sources", ns.Name)
		}
		for _, src := range ns.Sources {
			if _, err := src.resolve(""); err != nil {
				return fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
		}
	}

	if c.Publish.Enabled {
		p := c.Publish
		switch {
		case p.Endpoint == "":
			return errors.New("publish.endpoint is required when publishing")
		case p.Bucket == "":
			return errors.New("publish.bucket is required when publishing")
		case p.AccessKey == "" || p.SecretKey == "":
			return errors.New("publish.access_key and publish.secret_key are required when publishing")
		}
	}
	return nil
}

// Path resolves a path from the config against the config directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// SourceNamespaces converts the namespaces to loader input, resolving local
// paths against the config directory.
func (c *Config) SourceNamespaces() ([]source.Namespace, error) {
	out := make([]source.Namespace, 0, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		sn := source.Namespace{Name: ns.Name, Sources: make([]source.Source, 0, len(ns.Sources))}
		for _, sc := range ns.Sources {
			src, err := sc.resolve(c.dir)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: %w", ns.Name, err)
			}
			sn.Sources = append(sn.Sources, src)
		}
		out = append(out, sn)
	}
	return out, nil
}

// UsesS3 reports whether any source is an s3:// location.
func (c *Config) UsesS3() bool {
	for _, ns := range c.Namespaces {
		for _, sc := range ns.Sources {
			if strings.HasPrefix(sc.Path, "s3://") {
				return true
			}
		}
	}
	return false
}

// S3 returns the object store connection settings.
func (c *Config) S3() s3store.Config {
	return s3store.Config{
		Endpoint:  c.Publish.Endpoint,
		Region:    c.Publish.Region,
		AccessKey: c.Publish.AccessKey,
		SecretKey: c.Publish.SecretKey,
		Bucket:    c.Publish.Bucket,
		UseSSL:    c.Publish.UseSSL,
	}
}

func (sc SourceConfig) resolve(dir string) (source.Source, error) {
	if strings.TrimSpace(sc.Path) == "" {
		return source.Source{}, errors.New("source path not specified")
	}

	var (
		kind format.Kind
		err  error
	)
	if sc.Format == "" {
		kind, err = format.KindFromPath(sc.Path)
	} else {
		kind, err = format.ParseKind(sc.Format)
	}
	if err != nil {
		return source.Source{}, err
	}

	preset, err := source.ParsePreset(sc.Preset)
	if err != nil {
		return source.Source{}, err
	}

	location := sc.Path
	if dir != "" && !strings.Contains(location, "://") && !filepath.IsAbs(location) {
		location = filepath.Join(dir, location)
	}

	return source.Source{
		Location: location,
		Format:   kind,
		Preset:   preset,
		Exclude:  sc.Exclude,
	}, nil
}
