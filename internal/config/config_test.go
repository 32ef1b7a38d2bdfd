package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"BudgetMS", cfg.BudgetMS, 2000},
		{"ExcerptWidth", cfg.ExcerptWidth, 50},
		{"Workers", cfg.Workers, 0},
		{"Format", cfg.Format, FormatText},
		{"CacheEnabled", cfg.CacheEnabled, true},
		{"CacheSize", cfg.CacheSize, 4096},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.CacheDir == "" {
		t.Error("DefaultConfig().CacheDir is empty")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"json format", func(c *Config) { c.Format = FormatJSON }, false},
		{"dot format", func(c *Config) { c.Format = FormatDOT }, false},
		{"invalid format", func(c *Config) { c.Format = "xml" }, true},
		{"negative budget", func(c *Config) { c.BudgetMS = -1 }, true},
		{"zero budget valid", func(c *Config) { c.BudgetMS = 0 }, false},
		{"zero excerpt width", func(c *Config) { c.ExcerptWidth = 0 }, true},
		{"negative workers", func(c *Config) { c.Workers = -2 }, true},
		{"negative cache size", func(c *Config) { c.CacheSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg := DefaultConfig()
	cfg.BudgetMS = 500
	cfg.Format = FormatDOT
	cfg.Colors = map[string]string{"if_condition": "#112233"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.BudgetMS != 500 {
		t.Errorf("BudgetMS = %d, want 500", loaded.BudgetMS)
	}
	if loaded.Format != FormatDOT {
		t.Errorf("Format = %s, want dot", loaded.Format)
	}
	if loaded.Colors["if_condition"] != "#112233" {
		t.Errorf("Colors = %v, want if_condition override", loaded.Colors)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFromFile() on missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FF_BUDGET_MS", "750")
	t.Setenv("FF_WORKERS", "4")
	t.Setenv("FF_FORMAT", "json")
	t.Setenv("FF_CACHE_ENABLED", "false")
	t.Setenv("FF_VERBOSE", "1")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.BudgetMS != 750 {
		t.Errorf("BudgetMS = %d, want 750", cfg.BudgetMS)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Format = %s, want json", cfg.Format)
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled should be overridden to false")
	}
	if !cfg.Verbose {
		t.Error("Verbose should be overridden to true")
	}
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("FF_BUDGET_MS", "abc")
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if cfg.BudgetMS != 2000 {
		t.Errorf("BudgetMS = %d, want default after invalid override", cfg.BudgetMS)
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "config.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}
