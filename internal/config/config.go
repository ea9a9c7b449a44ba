package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string        `envconfig:"APP_ENV" default:"development"`
	SnapshotURL           string        `envconfig:"SNAPSHOT_URL" default:"https://api-rac-n-play.vercel.app/api/data/all"`
	SnapshotTimeout       time.Duration `envconfig:"SNAPSHOT_TIMEOUT" default:"15s"`
	DisplayTimezone       string        `envconfig:"DISPLAY_TIMEZONE" default:"America/Sao_Paulo"`
	RedisAddr             string        `envconfig:"REDIS_ADDR"`
	CacheTTL              time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	CacheSize             int           `envconfig:"CACHE_SIZE" default:"256"`
	GRPCPort              int           `envconfig:"GRPC_PORT" default:"50051"`
	GRPCReflectionEnabled bool          `envconfig:"GRPC_REFLECTION_ENABLED" default:"false"`
	HTTPPort              int           `envconfig:"HTTP_PORT" default:"8080"`
	CORSAllowOrigins      string        `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	RoleRulesFile         string        `envconfig:"ROLE_RULES_FILE"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SnapshotURL == "" {
		return fmt.Errorf("%w: SNAPSHOT_URL is empty", ErrInvalidConfig)
	}
	if c.SnapshotTimeout <= 0 {
		return fmt.Errorf("%w: SNAPSHOT_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: CACHE_TTL must be positive", ErrInvalidConfig)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: CACHE_SIZE must be positive", ErrInvalidConfig)
	}
	if !validPort(c.GRPCPort) {
		return fmt.Errorf("%w: GRPC_PORT %d out of range", ErrInvalidConfig, c.GRPCPort)
	}
	if !validPort(c.HTTPPort) {
		return fmt.Errorf("%w: HTTP_PORT %d out of range", ErrInvalidConfig, c.HTTPPort)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("%w: GRPC_PORT and HTTP_PORT are both %d", ErrInvalidConfig, c.GRPCPort)
	}
	return nil
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

// Location resolves DisplayTimezone. When the zone cannot be loaded it
// returns a fixed UTC-3 along with the load error.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60), fmt.Errorf("load DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
