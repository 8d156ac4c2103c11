package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const baseURLEnv = "THREADR_BASE_URL"

// Config holds the client's paths, server address and timings.
type Config struct {
	BaseURL        string
	CacheDir       string
	DBPath         string
	SessionPath    string
	LogPath        string
	PostTTL        time.Duration
	RequestTimeout time.Duration
	PollInterval   time.Duration
}

// fileConfig is the on-disk YAML form. Empty fields keep the default.
type fileConfig struct {
	BaseURL        string `yaml:"base_url"`
	CacheDir       string `yaml:"cache_dir"`
	PostTTL        string `yaml:"post_ttl"`
	RequestTimeout string `yaml:"request_timeout"`
	PollInterval   string `yaml:"poll_interval"`
}

// Default returns the built-in configuration, with THREADR_BASE_URL applied.
func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "threadr")
	cfg := Config{
		BaseURL:        "http://localhost:8080/api",
		PostTTL:        5 * time.Minute,
		RequestTimeout: 10 * time.Second,
		PollInterval:   30 * time.Second,
	}
	cfg.setCacheDir(cacheDir)
	if v := os.Getenv(baseURLEnv); v != "" {
		cfg.BaseURL = v
	}
	return cfg
}

// Load overlays the YAML file at path on the defaults. Environment variables
// in the file are expanded. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &fc); err != nil {
		return cfg, fmt.Errorf("parsing config yaml: %w", err)
	}

	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.CacheDir != "" {
		cfg.setCacheDir(fc.CacheDir)
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"post_ttl", fc.PostTTL, &cfg.PostTTL},
		{"request_timeout", fc.RequestTimeout, &cfg.RequestTimeout},
		{"poll_interval", fc.PollInterval, &cfg.PollInterval},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", d.name, err)
		}
		*d.dst = v
	}

	// The environment wins over the file.
	if v := os.Getenv(baseURLEnv); v != "" {
		cfg.BaseURL = v
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, cfg.Validate()
}

// Validate checks the values a client cannot run without.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	return nil
}

func (c *Config) setCacheDir(dir string) {
	c.CacheDir = dir
	c.DBPath = filepath.Join(dir, "cache.db")
	c.SessionPath = filepath.Join(dir, "session.json")
	c.LogPath = filepath.Join(dir, "debug.log")
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
