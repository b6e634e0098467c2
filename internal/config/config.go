package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Server ServerConfig
	Mongo  MongoConfig
	Token  TokenConfig
	Reset  ResetConfig
	Redis  RedisConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// MongoConfig holds the durable store settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" envDefault:"unilib"`
}

// TokenConfig holds the session token settings.
type TokenConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER"     envDefault:"unilib-api"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"720h"`
}

// ResetConfig holds the frontend base URLs embedded in recovery links.
type ResetConfig struct {
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
}

// RedisConfig points the OTP store at a shared Redis. Empty Addr keeps the
// in-process store.
type RedisConfig struct {
	Addr     string `env:"OTP_REDIS_ADDR"`
	Password string `env:"OTP_REDIS_PASSWORD"`
	DB       int    `env:"OTP_REDIS_DB"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the process runs with production hardening:
// no stack traces, no echoed secrets, delivery failures are fatal.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	if c.Token.Secret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}

	return nil
}
