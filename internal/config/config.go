package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Addr        string `env:"FORKPLACE_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"FORKPLACE_PG_DSN"`

	AccessSecret  string        `env:"FORKPLACE_ACCESS_SECRET"`
	RefreshSecret string        `env:"FORKPLACE_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"FORKPLACE_ACCESS_TTL" envDefault:"10m"`
	RefreshTTL    time.Duration `env:"FORKPLACE_REFRESH_TTL" envDefault:"720h"`
	TokenIssuer   string        `env:"FORKPLACE_TOKEN_ISSUER" envDefault:"forkplace"`

	RefreshCookieName string `env:"FORKPLACE_REFRESH_COOKIE" envDefault:"forkplace_refresh"`

	BcryptCost        int    `env:"FORKPLACE_BCRYPT_COST" envDefault:"10"`
	PasswordMinLength int    `env:"FORKPLACE_PASSWORD_MIN" envDefault:"8"`
	PasswordMaxLength int    `env:"FORKPLACE_PASSWORD_MAX" envDefault:"72"`
	PasswordPattern   string `env:"FORKPLACE_PASSWORD_PATTERN"`

	RateLimitPerSecond int   `env:"FORKPLACE_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int   `env:"FORKPLACE_RATE_LIMIT_BURST" envDefault:"40"`
	MaxBodyBytes       int64 `env:"FORKPLACE_MAX_BODY_BYTES" envDefault:"65536"`
}

// Load parses and validates the environment configuration.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("config: FORKPLACE_ACCESS_SECRET and FORKPLACE_REFRESH_SECRET are required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.PasswordMinLength <= 0 || c.PasswordMaxLength < c.PasswordMinLength {
		return errors.New("config: password length bounds are inconsistent")
	}
	if c.PasswordPattern != "" {
		if _, err := regexp.Compile(c.PasswordPattern); err != nil {
			return fmt.Errorf("config: invalid password pattern: %w", err)
		}
	}
	return nil
}

// CompilePasswordPattern returns the configured pattern, or nil when
// unset. Load has already checked that it compiles.
func (c Config) CompilePasswordPattern() *regexp.Regexp {
	if c.PasswordPattern == "" {
		return nil
	}
	return regexp.MustCompile(c.PasswordPattern)
}
