// Package config holds the linter settings and keeps them current while the config file changes.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultExecutable is used when no executable path is configured.
	DefaultExecutable = "psalm"

	// ExecutableEnv overrides the configured executable path.
	ExecutableEnv = "LINTER_PSALM_EXECUTABLE"
)

// Settings is the read side of the configuration, consulted at the start of every lint cycle.
type Settings interface {
	ExecutablePath() string
	Timeout() time.Duration
	ProjectRoots() []string
}

// Duration decodes Go duration strings ("30s", "2m") from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = parsed
	return nil
}

// Config is the content of the configuration file.
type Config struct {
	Executable string   `toml:"executable_path"`
	Deadline   Duration `toml:"timeout"`
	Roots      []string `toml:"project_roots"`
	// Catalog is resolved against the config file's directory. It is read once, at startup.
	Catalog    string   `toml:"catalog"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if v := os.Getenv(ExecutableEnv); v != "" {
		c.Executable = v
	}
	if c.Executable == "" {
		c.Executable = DefaultExecutable
	}
}

func (c *Config) ExecutablePath() string { return c.Executable }

func (c *Config) Timeout() time.Duration { return c.Deadline.Duration }

func (c *Config) ProjectRoots() []string { return c.Roots }

// Load decodes the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	c, err := decode(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// decode reads the file at path. Unlike Load, a missing file is an error wrapping fs.ErrNotExist.
func decode(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if c.Catalog != "" && !filepath.IsAbs(c.Catalog) {
		c.Catalog = filepath.Join(filepath.Dir(path), c.Catalog)
	}

	c.applyDefaults()
	return &c, nil
}

// Store holds the current configuration. It is safe for concurrent use and implements Settings by
// delegating to the most recently stored Config.
type Store struct {
	current atomic.Pointer[Config]
}

func NewStore(c *Config) *Store {
	if c == nil {
		c = Default()
	}
	s := &Store{}
	s.current.Store(c)
	return s
}

// Load returns the current configuration.
func (s *Store) Load() *Config {
	return s.current.Load()
}

// Swap replaces the configuration. Lint cycles already in flight keep the values they read.
func (s *Store) Swap(c *Config) {
	s.current.Store(c)
}

func (s *Store) ExecutablePath() string { return s.Load().ExecutablePath() }

func (s *Store) Timeout() time.Duration { return s.Load().Timeout() }

func (s *Store) ProjectRoots() []string { return s.Load().ProjectRoots() }
