// Package config loads the service's runtime configuration from a
// YAML file, with secrets and deployment-specific values overridable
// by environment variables, the way the original FastAPI service read
// its settings from env-first configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs the server needs at startup.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Media    MediaConfig    `yaml:"media"`
	Cache    CacheConfig    `yaml:"cache"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// MediaConfig selects and configures the media.Store backend. Exactly
// one of LocalDir or BlobEndpoint should be set.
type MediaConfig struct {
	LocalDir     string `yaml:"local_dir"`
	LocalBaseURL string `yaml:"local_base_url"`
	BlobEndpoint string `yaml:"blob_endpoint"`
}

type CacheConfig struct {
	CompatTTL time.Duration `yaml:"compat_ttl"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Auth: AuthConfig{TokenTTL: 12 * time.Hour},
		Media: MediaConfig{
			LocalDir:     "./uploads",
			LocalBaseURL: "/uploads",
		},
		Cache: CacheConfig{CompatTTL: 30 * time.Second},
	}
}

// Load reads path (if it exists — a missing file just means "use
// defaults plus environment") and applies environment overrides for
// values that should never live in a checked-in YAML file.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Database.DSN == "" {
		return Config{}, fmt.Errorf("database DSN is required (config file database.dsn or DATABASE_DSN)")
	}
	if cfg.Auth.SigningKey == "" {
		return Config{}, fmt.Errorf("auth signing key is required (config file auth.signing_key or AUTH_SIGNING_KEY)")
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment secrets and per-environment values
// override the YAML file without editing it, e.g. DATABASE_DSN or
// AUTH_SIGNING_KEY supplied by the orchestrator.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("AUTH_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
	if v := os.Getenv("MEDIA_BLOB_ENDPOINT"); v != "" {
		cfg.Media.BlobEndpoint = v
	}
	if v := os.Getenv("MEDIA_LOCAL_DIR"); v != "" {
		cfg.Media.LocalDir = v
	}
}
