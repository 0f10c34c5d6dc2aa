package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type RepairPolicy string

const (
	// broken chunks are removed from the region
	PolicyDelete RepairPolicy = "delete"
	// broken chunks are overwritten with an empty chunk
	PolicyReplace RepairPolicy = "replace"
)

const (
	DefaultDir       = "."
	DefaultExtension = ".mca"
	DefaultLogLevel  = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Dir       string       `yaml:"dir"`
	Compact   bool         `yaml:"compact"`
	Policy    RepairPolicy `yaml:"policy"`
	Workers   int          `yaml:"workers"`
	Extension string       `yaml:"extension"`

	// also read chunks stored uncompressed (3) or with lz4 (4), which older readers reject
	ExtendedCompression bool `yaml:"extended_compression"`

	MetricsFile string `yaml:"metrics_file"`
	LogLevel    string `yaml:"log_level"`
	Verbose     bool   `yaml:"verbose"`
}

func Default() Config {
	return Config{
		Dir:       DefaultDir,
		Policy:    PolicyDelete,
		Workers:   1,
		Extension: DefaultExtension,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads a yaml config on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return cfg, fmt.Errorf("unable to read config file %s: %s", path, readErr.Error())
	}

	parseErr := yaml.Unmarshal(data, &cfg)
	if parseErr != nil {
		return cfg, fmt.Errorf("unable to parse config file %s: %s", path, parseErr.Error())
	}

	return cfg, nil
}

// Normalize fills missing values and rejects the ones that can't be used.
func (c *Config) Normalize() error {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.Dir == "" {
		c.Dir = DefaultDir
	}

	if c.Workers < 1 {
		c.Workers = 1
	}

	c.Extension = strings.TrimSpace(c.Extension)
	if c.Extension == "" {
		c.Extension = DefaultExtension
	} else if !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}

	c.Policy = RepairPolicy(strings.ToLower(strings.TrimSpace(string(c.Policy))))
	switch c.Policy {
	case "":
		c.Policy = PolicyDelete
	case PolicyDelete, PolicyReplace:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, levelErr := c.SlogLevel(); levelErr != nil {
		return levelErr
	}

	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level

	unmarshalErr := level.UnmarshalText([]byte(c.LogLevel))
	if unmarshalErr != nil {
		return level, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}

	return level, nil
}
