package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// defaultJWTSecret is only acceptable in development mode.
const defaultJWTSecret = "medtrack-dev-secret"

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	DatabasePath           string   `mapstructure:"DATABASE_PATH"`
	JWTSecret              string   `mapstructure:"JWT_SECRET"`
	TokenTTLHours          int      `mapstructure:"TOKEN_TTL_HOURS"`
	UploadDir              string   `mapstructure:"UPLOAD_DIR"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRequests      int      `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindowSeconds int      `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	ShutdownTimeoutSeconds int      `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_PATH", "medtrack.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_PATH")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_REQUESTS")
	v.BindEnv("RATE_LIMIT_WINDOW_SECONDS")
	v.BindEnv("SHUTDOWN_TIMEOUT_SECONDS")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL returns the configured session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	hours := c.TokenTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// ShutdownTimeout returns how long in-flight requests may run during shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	secs := c.ShutdownTimeoutSeconds
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

// Validate checks that the configuration is safe to run. Production refuses
// to start with the built-in development token secret.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production; refusing to start with the built-in development secret")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive, got %d", c.RateLimitWindowSeconds)
	}
	return nil
}
