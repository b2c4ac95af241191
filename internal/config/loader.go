package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOptional behaves like Load but returns the defaults when the file does not exist.
// An empty path also yields the defaults.
func LoadOptional(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Decoding into the pre-filled default slices keeps stale trailing
	// elements when the file supplies a shorter list.
	if v.IsSet("extraction.navigation_path") {
		cfg.Extraction.NavigationPath = v.GetStringSlice("extraction.navigation_path")
	}
	if v.IsSet("extraction.time_path") {
		cfg.Extraction.TimePath = v.GetStringSlice("extraction.time_path")
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Input.Path = expandEnvVar(cfg.Input.Path)
	cfg.Output.Directory = expandEnvVar(cfg.Output.Directory)

	cfg.Store.Host = expandEnvVar(cfg.Store.Host)
	cfg.Store.User = expandEnvVar(cfg.Store.User)
	cfg.Store.Password = expandEnvVar(cfg.Store.Password)
	cfg.Store.Database = expandEnvVar(cfg.Store.Database)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides contains CLI flag values that take precedence over the config file.
// Zero values leave the file setting untouched.
type Overrides struct {
	LogLevel       string
	LogFormat      string
	InputPath      string
	MaxDepth       int
	Threshold      int
	SampleSize     int
	SampleStrategy string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.InputPath != "" {
		c.Input.Path = o.InputPath
	}
	if o.MaxDepth > 0 {
		c.Extraction.MaxDepth = o.MaxDepth
	}
	if o.Threshold > 0 {
		c.Extraction.ArraySummaryThreshold = o.Threshold
	}
	if o.SampleSize > 0 {
		c.Extraction.SampleSize = o.SampleSize
	}
	if o.SampleStrategy != "" {
		c.Extraction.SampleStrategy = o.SampleStrategy
	}
}
