package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how analysis results are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatDOT  OutputFormat = "dot"
)

// Config holds all configuration for fortflow.
type Config struct {
	// BudgetMS is the per-procedure graph construction budget in
	// milliseconds. 0 disables the budget.
	BudgetMS int `yaml:"budget_ms" env:"FF_BUDGET_MS"`

	// ExcerptWidth is the maximum label width for statement blocks.
	ExcerptWidth int `yaml:"excerpt_width" env:"FF_EXCERPT_WIDTH"`

	// Workers is the number of procedures analyzed concurrently in batch
	// mode. 0 means one worker per CPU.
	Workers int `yaml:"workers" env:"FF_WORKERS"`

	// Format is the default output format.
	Format OutputFormat `yaml:"format" env:"FF_FORMAT"`

	// Cache settings.
	CacheEnabled bool   `yaml:"cache_enabled" env:"FF_CACHE_ENABLED"`
	CacheDir     string `yaml:"cache_dir" env:"FF_CACHE_DIR"`
	CacheSize    int    `yaml:"cache_size" env:"FF_CACHE_SIZE"`

	// Colors overrides legend fill colors per block kind, e.g.
	// if_condition: "#112233".
	Colors map[string]string `yaml:"colors,omitempty"`

	// Logging
	Verbose bool `yaml:"verbose" env:"FF_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BudgetMS:     2000,
		ExcerptWidth: 50,
		Workers:      0,
		Format:       FormatText,
		CacheEnabled: true,
		CacheDir:     defaultCacheDir(),
		CacheSize:    4096,
		Verbose:      false,
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "fortflow")
	}
	return ".fortflow/cache"
}

// globalConfigFilePath returns the global config file path (~/.fortflow/config.yaml).
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fortflow/config.yaml"
	}
	return filepath.Join(home, ".fortflow", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.fortflow/config.yaml).
func projectConfigFilePath() string {
	return ".fortflow/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.fortflow/config.yaml)
// 3. Global config (~/.fortflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FF_BUDGET_MS"); v != "" {
		if i := parseInt(v); i >= 0 {
			cfg.BudgetMS = i
		}
	}
	if v := os.Getenv("FF_EXCERPT_WIDTH"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.ExcerptWidth = i
		}
	}
	if v := os.Getenv("FF_WORKERS"); v != "" {
		if i := parseInt(v); i >= 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("FF_FORMAT"); v != "" {
		cfg.Format = OutputFormat(v)
	}
	if v := os.Getenv("FF_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("FF_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("FF_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("FF_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatDOT:
	default:
		return fmt.Errorf("invalid format: %s (must be 'text', 'json', or 'dot')", c.Format)
	}
	if c.BudgetMS < 0 {
		return fmt.Errorf("budget_ms must be non-negative")
	}
	if c.ExcerptWidth <= 0 {
		return fmt.Errorf("excerpt_width must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative")
	}
	return nil
}

// CacheFilePath returns the path of the persisted cache file.
func (c *Config) CacheFilePath() string {
	return filepath.Join(c.CacheDir, "results.msgpack")
}

// parseInt attempts to parse a string as int.
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return -1
	}
	return i
}
