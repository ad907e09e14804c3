package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voronoize/voronoize/pkg/errors"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfgDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v, missing file should not fail", err)
	}
	if cfg.Ratio != 0 || cfg.Cache.Backend != "" {
		t.Errorf("missing config should yield zero values, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	writeConfig(t, `
ratio = 0.25
adjacency = 8
colorspace = "lab"
palette_size = 16
palette_method = "dominant"

[cache]
backend = "redis"
redis_addr = "localhost:6380"
`)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Ratio != 0.25 {
		t.Errorf("Ratio = %v, want 0.25", cfg.Ratio)
	}
	if cfg.Adjacency != 8 {
		t.Errorf("Adjacency = %d, want 8", cfg.Adjacency)
	}
	if cfg.Colorspace != "lab" {
		t.Errorf("Colorspace = %q, want lab", cfg.Colorspace)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6380" {
		t.Errorf("Cache = %+v, want redis backend at localhost:6380", cfg.Cache)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	writeConfig(t, "ratio = [not toml")

	_, err := loadConfig()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("loadConfig() error = %v, want INVALID_CONFIG", err)
	}
}

func TestPipelineOptionsFromConfig(t *testing.T) {
	cfg := &Config{
		Ratio:       0.3,
		Adjacency:   8,
		Colorspace:  "lab",
		PaletteSize: 8,
	}

	opts := cfg.pipelineOptions()
	if opts.Ratio != 0.3 || opts.Adjacency != 8 || opts.Colorspace != "lab" || opts.PaletteSize != 8 {
		t.Errorf("pipelineOptions() = %+v does not mirror config", opts)
	}

	// Zero config seeds zero options; the pipeline fills defaults later.
	empty := (&Config{}).pipelineOptions()
	if err := empty.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero config options should validate, got %v", err)
	}
}
