package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/nick"
)

// ProjectFile is the per-directory configuration file name.
const ProjectFile = ".whosaid.yaml"

// Colour modes for query output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the complete whosaid configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Query   QueryConfig   `yaml:"query" json:"query"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures index builds.
type IndexConfig struct {
	// NickPattern is the regular expression whose first capture group is the
	// nickname of a log line. It is anchored at the start of the line.
	NickPattern string `yaml:"nick_pattern" json:"nick_pattern"`

	// Workers is the number of directories crawled concurrently. 1 is a
	// sequential crawl and 0 is one per CPU.
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize is the number of per-file results kept between rebuilds in
	// watch mode. 0 disables the cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// QueryConfig configures query output.
type QueryConfig struct {
	// Color is auto, always or never.
	Color string `yaml:"color" json:"color"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	// Debounce is how long to wait after the last change before rebuilding,
	// as a Go duration string.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			NickPattern: nick.DefaultPattern,
			Workers:     1,
			CacheSize:   4096,
		},
		Query: QueryConfig{
			Color: ColorAuto,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/whosaid/config.yaml, or ~/.config/whosaid/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "whosaid", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "whosaid", "config.yaml")
	}
	return filepath.Join(home, ".config", "whosaid", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the working directory dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/whosaid/config.yaml)
//  3. Project config (.whosaid.yaml in dir)
//  4. Environment variables (WHOSAID_*)
//
// Command-line flags are applied by the caller on top of the result.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := filepath.Join(dir, ProjectFile); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges the non-zero values of the YAML file at path into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return werrors.FileAccess(path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return werrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)

	// Zero is meaningful for these keys, so an explicit 0 must override.
	var explicit struct {
		Index struct {
			Workers   *int `yaml:"workers"`
			CacheSize *int `yaml:"cache_size"`
		} `yaml:"index"`
	}
	if err := yaml.Unmarshal(data, &explicit); err == nil {
		if explicit.Index.Workers != nil {
			c.Index.Workers = *explicit.Index.Workers
		}
		if explicit.Index.CacheSize != nil {
			c.Index.CacheSize = *explicit.Index.CacheSize
		}
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Index.NickPattern != "" {
		c.Index.NickPattern = other.Index.NickPattern
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.CacheSize != 0 {
		c.Index.CacheSize = other.Index.CacheSize
	}
	if other.Query.Color != "" {
		c.Query.Color = other.Query.Color
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies WHOSAID_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("WHOSAID_NICK_PATTERN"); v != "" {
		c.Index.NickPattern = v
	}
	if v := os.Getenv("WHOSAID_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return werrors.ConfigError("WHOSAID_WORKERS must be an integer", err)
		}
		c.Index.Workers = n
	}
	if v := os.Getenv("WHOSAID_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return werrors.ConfigError("WHOSAID_CACHE_SIZE must be an integer", err)
		}
		c.Index.CacheSize = n
	}
	if v := os.Getenv("WHOSAID_COLOR"); v != "" {
		c.Query.Color = v
	}
	if v := os.Getenv("WHOSAID_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("WHOSAID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if _, err := nick.New(c.Index.NickPattern); err != nil {
		return werrors.ConfigError("index.nick_pattern is not a usable nickname pattern", err)
	}
	if c.Index.Workers < 0 {
		return werrors.ConfigError(fmt.Sprintf("index.workers must be non-negative (0 = one per CPU), got %d", c.Index.Workers), nil)
	}
	if c.Index.CacheSize < 0 {
		return werrors.ConfigError(fmt.Sprintf("index.cache_size must be non-negative, got %d", c.Index.CacheSize), nil)
	}

	switch strings.ToLower(c.Query.Color) {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return werrors.ConfigError(fmt.Sprintf("query.color must be 'auto', 'always', or 'never', got %s", c.Query.Color), nil)
	}

	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		return werrors.ConfigError(fmt.Sprintf("watch.debounce must be a non-negative duration, got %q", c.Watch.Debounce), err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return werrors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	return nil
}

// DebounceDuration returns Watch.Debounce parsed, or the default on error.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// DefaultWorkers is the worker count used when workers is 0.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return werrors.FileAccess(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return werrors.FileAccess(path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
