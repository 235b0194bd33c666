package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/filetree/internal/util"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Bytes per MB
const MB = 1024 * 1024

// Log verbosity as passed on the command line, from 1 (error) to 5 (trace)
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultMaxChildren leaves child collections unbounded
	DefaultMaxChildren = 0

	// DefaultMaxFileSize is the largest accepted file contents in bytes
	DefaultMaxFileSize = 64 * MB
)

// Config contains runtime configuration values for the file tree.
type Config struct {
	LogLvl      util.LogLevel // Global log level (Default Info)
	MaxChildren int           // Max directory or file children per node; 0 = unlimited (Default 0)
	MaxFileSize int           // Max file contents in bytes; 0 = unlimited (Default 64MB)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a verbosity between 1 (error) and 5 (trace); out of range values are clamped
	LogLvl      *int `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	MaxChildren *int `yaml:"max_children,omitempty" json:"max_children,omitempty"`
	MaxFileSize *int `yaml:"max_file_size,omitempty" json:"max_file_size,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:      DefaultLogLvl,
		MaxChildren: DefaultMaxChildren,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// NewConfig creates a Config from defaults with override applied; override may be nil
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.MaxChildren != nil {
		c.MaxChildren = *override.MaxChildren
	}
	if override.MaxFileSize != nil {
		c.MaxFileSize = *override.MaxFileSize
	}
}

// VerboseToLogLevel maps a CLI verbosity between 1 (error) and 5 (trace) to a
// log level, clamping out of range values
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = min(max(verbose, ErrorVerbose), TraceVerbose)
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(fs afero.Fs, path string) (*ConfigOverride, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(fs afero.Fs, path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(fs, path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
