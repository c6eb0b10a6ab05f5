package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración del servicio, cargada de YAML con overrides
// por variables de entorno (TOKENSMITH_*).
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | redis | postgres
		Driver   string `yaml:"driver"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Alg        string `yaml:"alg"` // HS256 | RS256
		HMACSecret string `yaml:"hmac_secret"`
		RSAKeyFile string `yaml:"rsa_key_file"`
		KeyID      string `yaml:"key_id"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	OAuth struct {
		CodeTTL string `yaml:"code_ttl"`
	} `yaml:"oauth"`

	Seed struct {
		File string `yaml:"file"`
	} `yaml:"seed"`
}

// Load lee el YAML (si existe) y aplica defaults + overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Defaults
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "http://localhost:8080"
	}
	if cfg.JWT.Alg == "" {
		cfg.JWT.Alg = "HS256"
	}

	// Overrides de entorno
	cfg.App.Env = envOr("TOKENSMITH_ENV", cfg.App.Env)
	cfg.Server.Addr = envOr("TOKENSMITH_ADDR", cfg.Server.Addr)
	cfg.Log.Level = envOr("LOG_LEVEL", cfg.Log.Level)
	cfg.Storage.Driver = envOr("TOKENSMITH_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Postgres.DSN = envOr("TOKENSMITH_POSTGRES_DSN", cfg.Storage.Postgres.DSN)
	cfg.Storage.Redis.Addr = envOr("TOKENSMITH_REDIS_ADDR", cfg.Storage.Redis.Addr)
	cfg.Storage.Redis.DB = envIntOr("TOKENSMITH_REDIS_DB", cfg.Storage.Redis.DB)
	cfg.Storage.Redis.Prefix = envOr("TOKENSMITH_REDIS_PREFIX", cfg.Storage.Redis.Prefix)
	cfg.JWT.Issuer = envOr("TOKENSMITH_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.HMACSecret = envOr("TOKENSMITH_JWT_SECRET", cfg.JWT.HMACSecret)
	cfg.JWT.RSAKeyFile = envOr("TOKENSMITH_JWT_RSA_KEY_FILE", cfg.JWT.RSAKeyFile)

	return cfg, nil
}

// AccessTTL retorna el TTL de access tokens (default 1h).
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWT.AccessTTL, time.Hour)
}

// RefreshTTL retorna el TTL de refresh tokens (default 30d).
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWT.RefreshTTL, 30*24*time.Hour)
}

// CodeTTL retorna el TTL de authorization codes (default 10m).
func (c *Config) CodeTTL() time.Duration {
	return parseDuration(c.OAuth.CodeTTL, 10*time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
