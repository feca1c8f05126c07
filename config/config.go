package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	Payout     PayoutConfig
	Referral   ReferralConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8099"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	// Driver is mysql or sqlite. sqlite is meant for local runs and tests.
	Driver          string        `env:"DATABASE_DRIVER" envDefault:"mysql"`
	DSN             string        `env:"DATABASE_DSN" envDefault:"weavemart:weavemart@tcp(localhost:3306)/weavemart?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"1h"`
	// QueryTimeout bounds each logical ledger operation (settle, milestone check, ...).
	QueryTimeout time.Duration `env:"DATABASE_QUERY_TIMEOUT" envDefault:"5s"`
	AdminEmail   string        `env:"SEED_ADMIN_EMAIL"`
}

type JWTConfig struct {
	AccessSecret string        `env:"JWT_ACCESS_SECRET" envDefault:"change-me-in-production"`
	AccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	Issuer       string        `env:"JWT_ISSUER" envDefault:"weavemart"`
}

type CloudinaryConfig struct {
	CloudName    string        `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey       string        `env:"CLOUDINARY_API_KEY"`
	APISecret    string        `env:"CLOUDINARY_API_SECRET"`
	DesignFolder string        `env:"CLOUDINARY_DESIGN_FOLDER" envDefault:"weavemart/designs"`
	DownloadTTL  time.Duration `env:"CLOUDINARY_DOWNLOAD_TTL" envDefault:"1h"`
}

type PayoutConfig struct {
	// Timezone used for payment_id stamps and monthly analytics buckets.
	Timezone string `env:"PAYOUT_TIMEZONE" envDefault:"Asia/Kolkata"`
}

type ReferralConfig struct {
	CodeLength    int `env:"REFERRAL_CODE_LENGTH" envDefault:"8"`
	CodeAttempts  int `env:"REFERRAL_CODE_ATTEMPTS" envDefault:"10"`
	MilestoneSize int `env:"REFERRAL_MILESTONE_DESIGNS" envDefault:"10"`
}

type RateLimitConfig struct {
	RequestsPerMinute float64 `env:"RATE_LIMIT_PER_MINUTE" envDefault:"100"`
	Burst             int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves Payout.Timezone, defaulting to UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Payout.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Payout.Timezone)
	if err != nil {
		return nil, fmt.Errorf("payout timezone %q: %w", c.Payout.Timezone, err)
	}
	return loc, nil
}
