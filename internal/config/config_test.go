// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./records.db"

volumes:
  records_per_volume: 50

generation:
  api_base: "https://api.openai.com/v1"
  api_key: "sk-test"
  text_model: "gpt-4o"
  image_model: "dall-e-3"
  max_tokens: 512
  temperature: 0.7
  timeout: "60s"
  candidates_per_cycle: 3

themes:
  policy: "round-robin"

backup:
  dir: "./backups"
  max_backups: 100
  retention_days: 30

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "./records.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./records.db")
	}

	if cfg.Volumes.RecordsPerVolume != 50 {
		t.Errorf("Volumes.RecordsPerVolume = %d, want 50", cfg.Volumes.RecordsPerVolume)
	}

	if cfg.Generation.APIBase != "https://api.openai.com/v1" {
		t.Errorf("Generation.APIBase = %q, want %q", cfg.Generation.APIBase, "https://api.openai.com/v1")
	}
	if cfg.Generation.TextModel != "gpt-4o" {
		t.Errorf("Generation.TextModel = %q, want %q", cfg.Generation.TextModel, "gpt-4o")
	}
	if cfg.Generation.Timeout != 60*time.Second {
		t.Errorf("Generation.Timeout = %v, want %v", cfg.Generation.Timeout, 60*time.Second)
	}
	if cfg.Generation.CandidatesPerCycle != 3 {
		t.Errorf("Generation.CandidatesPerCycle = %d, want 3", cfg.Generation.CandidatesPerCycle)
	}

	if cfg.Themes.Policy != "round-robin" {
		t.Errorf("Themes.Policy = %q, want %q", cfg.Themes.Policy, "round-robin")
	}

	if cfg.Backup.Dir != "./backups" {
		t.Errorf("Backup.Dir = %q, want %q", cfg.Backup.Dir, "./backups")
	}
	if cfg.Backup.MaxBackups != 100 {
		t.Errorf("Backup.MaxBackups = %d, want 100", cfg.Backup.MaxBackups)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("Backup.RetentionDays = %d, want 30", cfg.Backup.RetentionDays)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_ASK_API_KEY", "sk-from-env")

	configPath := writeConfig(t, `
database:
  path: "./records.db"

generation:
  api_key: "${TEST_ASK_API_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Generation.APIKey != "sk-from-env" {
		t.Errorf("Generation.APIKey = %q, want %q", cfg.Generation.APIKey, "sk-from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, `
database:
  path: "./records.db"

generation:
  api_key: "${UNSET_VAR_FOR_TEST}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Unset env vars should expand to empty string
	if cfg.Generation.APIKey != "" {
		t.Errorf("Generation.APIKey = %q, want empty string for unset env var", cfg.Generation.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/engine.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path "missing colon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./records.db"

generation:
  timeout: "invalid-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing database path",
			configContent: `
database:
  path: ""
`,
			wantErrSubstr: "database.path is required",
		},
		{
			name: "fixed policy without theme",
			configContent: `
database:
  path: "./records.db"
themes:
  policy: "fixed"
`,
			wantErrSubstr: "themes.fixed is required",
		},
		{
			name: "unknown policy",
			configContent: `
database:
  path: "./records.db"
themes:
  policy: "alphabetical"
`,
			wantErrSubstr: "themes.policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.configContent)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}

			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv("ASK_CONFIG", "/etc/ask/engine.yaml")

	if got := DefaultPath(); got != "/etc/ask/engine.yaml" {
		t.Errorf("DefaultPath() = %q, want %q", got, "/etc/ask/engine.yaml")
	}
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("ASK_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/home/test/.config")

	want := filepath.Join("/home/test/.config", "ask", "engine.yaml")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
