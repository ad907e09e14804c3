package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/pipeline"
)

// Config holds persistent CLI settings loaded from the config file.
// Every field has a working zero value; a missing config file is not an error.
type Config struct {
	// Defaults applied to compress runs when the flag is not given.
	Ratio         float64 `toml:"ratio"`
	Adjacency     int     `toml:"adjacency"`
	Colorspace    string  `toml:"colorspace"`
	BinSize       float64 `toml:"bin_size"`
	WeightScaled  bool    `toml:"weight_scaled"`
	PaletteSize   int     `toml:"palette_size"`
	PaletteMethod string  `toml:"palette_method"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file" (default), "redis", "mongo", "none".
	Backend string `toml:"backend"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// configPath returns the config file location using XDG standard
// (~/.config/voronoize/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file if present. A missing file yields the
// zero config; a malformed file is reported as INVALID_CONFIG.
func loadConfig() (*Config, error) {
	cfg := &Config{}

	path, err := configPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, nil
}

// pipelineOptions seeds pipeline options from config values. Flags override
// these afterwards; pipeline validation fills the remaining defaults.
func (c *Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Ratio:         c.Ratio,
		Adjacency:     c.Adjacency,
		Colorspace:    c.Colorspace,
		BinSize:       c.BinSize,
		WeightScaled:  c.WeightScaled,
		PaletteSize:   c.PaletteSize,
		PaletteMethod: c.PaletteMethod,
	}
}
