// Package config loads and validates the llmdocs configuration file.
//
// Configuration is explicit: both pipelines receive a *Config rather than
// reading ambient process state. Environment variables referenced in the YAML
// (e.g. ${GEMINI_API_KEY}) are expanded at load time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Generator GeneratorConfig `yaml:"generator"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Journal   JournalConfig   `yaml:"journal,omitempty"`
}

// OutputConfig describes the build output the converter operates on.
type OutputConfig struct {
	// Format is the active output format of the surrounding site build.
	// Markdown conversion only applies to "html"; other formats no-op.
	Format string `yaml:"format"`
	// LLMSText controls generation of the concatenated llms.txt index.
	LLMSText bool `yaml:"llms_text"`
	// DocExtensions lists source document extensions scanned for docrefs.
	DocExtensions []string `yaml:"doc_extensions,omitempty"`
}

// GeneratorConfig selects and parameterizes the summary generation backend.
type GeneratorConfig struct {
	Provider  string `yaml:"provider"` // "gemini" or "fake"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// TimeoutSeconds bounds a single generation call. Zero means the default.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// RetryConfig holds backoff settings for transient generation failures.
type RetryConfig struct {
	Backoff        string `yaml:"backoff,omitempty"` // fixed|linear|exponential
	InitialSeconds int    `yaml:"initial_seconds,omitempty"`
	MaxSeconds     int    `yaml:"max_seconds,omitempty"`
	MaxRetries     int    `yaml:"max_retries,omitempty"`
}

// MetricsConfig enables the Prometheus listener in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// JournalConfig locates the resolution journal database.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; missing files are fine.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Output: OutputConfig{
			Format:        FormatHTML,
			LLMSText:      true,
			DocExtensions: []string{".md"},
		},
		Generator: GeneratorConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Journal: JournalConfig{
			Path: ".llmdocs/journal.db",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
