// ABOUTME: Configuration loading and parsing for ask-engine
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ask-engine configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Volumes    VolumesConfig    `yaml:"volumes"`
	Generation GenerationConfig `yaml:"generation"`
	Themes     ThemesConfig     `yaml:"themes"`
	Backup     BackupConfig     `yaml:"backup"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// VolumesConfig controls how sequence ids map onto volumes
type VolumesConfig struct {
	RecordsPerVolume int `yaml:"records_per_volume"`
}

// GenerationConfig holds text and image generation settings
type GenerationConfig struct {
	APIBase            string  `yaml:"api_base"`
	APIKey             string  `yaml:"api_key"`
	TextModel          string  `yaml:"text_model"`
	ImageModel         string  `yaml:"image_model"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float32 `yaml:"temperature"`
	CandidatesPerCycle int     `yaml:"candidates_per_cycle"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// ThemesConfig selects how each cycle picks its theme
type ThemesConfig struct {
	// Policy is one of "round-robin", "random" or "fixed"
	Policy string `yaml:"policy"`
	// Fixed is the theme used when Policy is "fixed"
	Fixed string `yaml:"fixed"`
}

// BackupConfig holds backup directory and retention settings
type BackupConfig struct {
	Dir           string `yaml:"dir"`
	MaxBackups    int    `yaml:"max_backups"`
	RetentionDays int    `yaml:"retention_days"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultPath resolves the configuration file location. The ASK_CONFIG
// environment variable wins, then $XDG_CONFIG_HOME/ask/engine.yaml, then
// ~/.config/ask/engine.yaml.
func DefaultPath() string {
	if p := os.Getenv("ASK_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ask", "engine.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "engine.yaml"
	}
	return filepath.Join(home, ".config", "ask", "engine.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Volumes.RecordsPerVolume < 0 {
		return fmt.Errorf("volumes.records_per_volume must not be negative")
	}

	switch c.Themes.Policy {
	case "", "round-robin", "random":
	case "fixed":
		if c.Themes.Fixed == "" {
			return fmt.Errorf("themes.fixed is required when themes.policy is \"fixed\"")
		}
	default:
		return fmt.Errorf("themes.policy %q is not one of round-robin, random, fixed", c.Themes.Policy)
	}

	if c.Backup.MaxBackups < 0 {
		return fmt.Errorf("backup.max_backups must not be negative")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Generation.TimeoutRaw != "" {
		cfg.Generation.Timeout, err = time.ParseDuration(cfg.Generation.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing generation.timeout %q: %w", cfg.Generation.TimeoutRaw, err)
		}
	}

	return nil
}
