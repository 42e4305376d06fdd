package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	Storage        string        `mapstructure:"STORAGE"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	AuthSecret     string        `mapstructure:"AUTH_SECRET"`
	PaymentsMode   string        `mapstructure:"PAYMENTS_MODE"`
	PaymentsURL    string        `mapstructure:"PAYMENTS_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("PAYMENTS_MODE", "inprocess")
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("PAYMENTS_MODE")
	v.BindEnv("PAYMENTS_URL")
	v.BindEnv("REQUEST_TIMEOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	switch cfg.Storage {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("STORAGE must be postgres or memory, got %q", cfg.Storage)
	}

	if cfg.Storage == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with STORAGE=postgres")
	}

	switch cfg.PaymentsMode {
	case "inprocess":
	case "http":
		if cfg.PaymentsURL == "" {
			return nil, fmt.Errorf("PAYMENTS_URL is required with PAYMENTS_MODE=http")
		}
	default:
		return nil, fmt.Errorf("PAYMENTS_MODE must be inprocess or http, got %q", cfg.PaymentsMode)
	}

	if !cfg.IsDev() && cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required outside development")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
