// Package config loads and validates the wily configuration. Configuration
// comes from a YAML file (wily.yaml by default) with sane defaults for every
// field, plus a WILY_CACHE environment override for the cache location.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

var ErrBadConfig = errors.New("wily: malformed configuration")

// DefaultCachePath is where revision indexes live unless overridden.
const DefaultCachePath = ".wily"

// DefaultMaxRevisions caps how far back an archiver walks the history.
const DefaultMaxRevisions = 50

// Config is shared, not owned: one instance is threaded through the state
// core, the cache store and the CLI.
type Config struct {
	// Path is the source tree under analysis.
	Path string `yaml:"path"`
	// CachePath is the backing location of the cache store.
	CachePath string `yaml:"cache_path"`
	// Archiver names the default source-history provider.
	Archiver string `yaml:"archiver"`
	// Operators are the metric-operator tags recorded with new revisions.
	Operators []string `yaml:"operators"`
	// MaxRevisions bounds a single build pass.
	MaxRevisions int `yaml:"max_revisions"`
}

func Default() *Config {
	return &Config{
		Path:         ".",
		CachePath:    DefaultCachePath,
		Archiver:     "git",
		Operators:    []string{"cyclomatic", "maintainability", "raw"},
		MaxRevisions: DefaultMaxRevisions,
	}
}

// Load reads the configuration file at path. A missing file is not an
// error; the defaults apply. WILY_CACHE, when set, wins over both.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(ErrBadConfig, "parse %s: %s", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "wily: read config %s", path)
	}
	if cache := os.Getenv("WILY_CACHE"); cache != "" {
		cfg.CachePath = cache
	}
	return cfg, cfg.Validate()
}

// Validate reports ErrBadConfig for any field the rest of the tool cannot
// operate on.
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrBadConfig, "nil config")
	}
	if c.Path == "" {
		return errors.Wrap(ErrBadConfig, "empty path")
	}
	if c.CachePath == "" {
		return errors.Wrap(ErrBadConfig, "empty cache_path")
	}
	if c.Archiver == "" {
		return errors.Wrap(ErrBadConfig, "empty archiver")
	}
	if c.MaxRevisions < 0 {
		return errors.Wrapf(ErrBadConfig, "max_revisions %d", c.MaxRevisions)
	}
	return nil
}
