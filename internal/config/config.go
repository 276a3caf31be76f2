package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/tailor/internal/generation"
	"github.com/pbaille/tailor/internal/store"
)

// Store backends
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Store selects the key-value backend
type Store struct {
	Backend string `yaml:"backend"`
	Driver  string `yaml:"driver"`
	Path    string `yaml:"path"`
}

// Config holds tailor's settings
type Config struct {
	Endpoint    string `yaml:"endpoint"`
	DownloadDir string `yaml:"download_dir"`
	Addr        string `yaml:"addr"`
	Store       Store  `yaml:"store"`
}

// DefaultPath is ~/.tailor/config.yaml
func DefaultPath() string {
	return filepath.Join(home(), ".tailor", "config.yaml")
}

// Load reads .env, then the YAML file at path (missing is fine), then TAILOR_* env vars
func Load(path string) (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	override(&cfg.Endpoint, "TAILOR_ENDPOINT")
	override(&cfg.DownloadDir, "TAILOR_DOWNLOAD_DIR")
	override(&cfg.Addr, "TAILOR_ADDR")
	override(&cfg.Store.Backend, "TAILOR_STORE")
	override(&cfg.Store.Driver, "TAILOR_STORE_DRIVER")
	override(&cfg.Store.Path, "TAILOR_STORE_PATH")

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = generation.DefaultEndpoint
	}
	if c.DownloadDir == "" {
		c.DownloadDir = filepath.Join(home(), "Downloads")
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.Driver == "" {
		c.Store.Driver = store.DriverCGO
	}
	if c.Store.Path == "" {
		if c.Store.Backend == BackendFile {
			c.Store.Path = filepath.Join(home(), ".tailor", "log")
		} else {
			c.Store.Path = filepath.Join(home(), ".tailor", "tailor.db")
		}
	}
	c.DownloadDir = expandHome(c.DownloadDir)
	c.Store.Path = expandHome(c.Store.Path)
}

// Validate rejects unknown backends and drivers
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown store backend %q (want sqlite or file)", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.Driver != store.DriverCGO && c.Store.Driver != store.DriverPure {
		return fmt.Errorf("unknown sqlite driver %q (want sqlite3 or sqlite)", c.Store.Driver)
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL: %q", c.Endpoint)
	}
	return nil
}

// OpenStore opens the configured key-value backend
func (c *Config) OpenStore() (store.KV, error) {
	if c.Store.Backend == BackendFile {
		return store.OpenFile(c.Store.Path)
	}
	if err := os.MkdirAll(filepath.Dir(c.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.Open(c.Store.Driver, c.Store.Path)
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// loadDotEnv loads the nearest .env from the working directory upward
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func home() string {
	h, _ := os.UserHomeDir()
	return h
}

func expandHome(p string) string {
	if p == "~" {
		return home()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home(), p[2:])
	}
	return p
}
