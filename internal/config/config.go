package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the twquant gateway and TUI.
type Config struct {
	Backend Backend `yaml:"backend"`
	Server  Server  `yaml:"server"`
	UI      UI      `yaml:"ui"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

// Backend holds the upstream analysis API endpoint and client limits.
type Backend struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Server holds the gateway network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UI holds presentation defaults shared by the gateway and the TUI.
type UI struct {
	PageSize int `yaml:"page_size"`
}

// Storage holds paths for local persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: Backend{
			BaseURL:         "http://localhost:8000",
			TimeoutSeconds:  600,
			RateLimitPerMin: 120,
		},
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		UI:      UI{PageSize: 10},
		Storage: Storage{SQLitePath: "twquant.db"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at path, fills in defaults, and
// then applies environment variable overrides. A missing file is not an
// error: defaults plus environment apply. A .env file in the working
// directory is folded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional; absence is fine

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url must not be empty")
	}
	if cfg.UI.PageSize <= 0 {
		cfg.UI.PageSize = 10
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	// Project-prefixed name wins over the generic one.
	if v := os.Getenv("TWQUANT_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	if v := os.Getenv("BACKEND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Backend.TimeoutSeconds = n
		}
	}

	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
