// Package config loads pscale settings from an optional YAML or TOML file
// and the PSCALE_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/pscale/internal/coord"
	"github.com/HendryAvila/pscale/internal/memory"
	"github.com/HendryAvila/pscale/internal/storage"
)

// Environment variables read by Load.
const (
	EnvDataDir  = "PSCALE_DATA_DIR"
	EnvBackend  = "PSCALE_BACKEND"
	EnvLogLevel = "PSCALE_LOG_LEVEL"
)

// ErrUnknownFormat is returned for a config file that is neither YAML nor TOML.
var ErrUnknownFormat = errors.New("config: unknown file format (want .yaml, .yml or .toml)")

// Config is the file form of the store settings.
type Config struct {
	DataDir          string         `yaml:"data_dir" toml:"data_dir"`
	Backend          string         `yaml:"backend" toml:"backend"`
	DefaultNamespace string         `yaml:"default_namespace" toml:"default_namespace"`
	DefaultPlace     int            `yaml:"default_place" toml:"default_place"`
	Namespaces       map[string]int `yaml:"namespaces" toml:"namespaces"`
	LegacyDump       string         `yaml:"legacy_dump" toml:"legacy_dump"`
	LogLevel         string         `yaml:"log_level" toml:"log_level"`
}

// Default mirrors memory.DefaultConfig with an info log level.
func Default() *Config {
	m := memory.DefaultConfig()
	return &Config{
		DataDir:          m.DataDir,
		Backend:          m.Backend,
		DefaultNamespace: m.DefaultNamespace,
		DefaultPlace:     m.DefaultPlace,
		Namespaces:       m.Places,
		LogLevel:         "info",
	}
}

// Load reads path (skipped when empty) over the defaults and then applies
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.DataDir = expandHome(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	// Namespaces from the file extend the default set instead of replacing it.
	defaults := c.Namespaces
	c.Namespaces = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if c.Namespaces == nil {
		c.Namespaces = make(map[string]int, len(defaults))
	}
	for p, place := range defaults {
		if _, ok := c.Namespaces[p]; !ok {
			c.Namespaces[p] = place
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func expandHome(dir string) string {
	rest, ok := strings.CutPrefix(dir, "~/")
	if !ok {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, rest)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" && c.Backend != storage.KindMemory {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	switch c.Backend {
	case storage.KindSQLite, storage.KindFile, storage.KindMemory:
	default:
		errs = append(errs, fmt.Errorf("backend %q must be one of %s, %s, %s",
			c.Backend, storage.KindSQLite, storage.KindFile, storage.KindMemory))
	}
	if !coord.ValidPrefix(c.DefaultNamespace) {
		errs = append(errs, fmt.Errorf("default_namespace %q is not a valid prefix", c.DefaultNamespace))
	}
	if c.DefaultPlace < 0 {
		errs = append(errs, fmt.Errorf("default_place must not be negative, got %d", c.DefaultPlace))
	}

	prefixes := make([]string, 0, len(c.Namespaces))
	for p := range c.Namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		if !coord.ValidPrefix(p) {
			errs = append(errs, fmt.Errorf("namespace %q is not a valid prefix", p))
		}
		if c.Namespaces[p] < 0 {
			errs = append(errs, fmt.Errorf("namespace %s: place must not be negative", p))
		}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q must be debug, info, warn or error", s)
	}
	return l, nil
}

// Memory converts c into the store configuration.
func (c *Config) Memory(logger *slog.Logger) memory.Config {
	places := make(map[string]int, len(c.Namespaces))
	for p, place := range c.Namespaces {
		places[p] = place
	}
	return memory.Config{
		DataDir:          c.DataDir,
		Backend:          c.Backend,
		DefaultNamespace: c.DefaultNamespace,
		Places:           places,
		DefaultPlace:     c.DefaultPlace,
		LegacyDump:       c.LegacyDump,
		Logger:           logger,
	}
}
