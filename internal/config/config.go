package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// minSecretLen is the minimum length of the session signing secret in bytes.
const minSecretLen = 32

// Config holds the application configuration.
type Config struct {
	ServerPort int `env:"PORT" envDefault:"8080"`

	DatabaseURL      string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"5"`
	DBConnectRetries uint64        `env:"DB_CONNECT_RETRIES" envDefault:"5"`
	DBConnectBackoff time.Duration `env:"DB_CONNECT_BACKOFF" envDefault:"1s"`

	SessionSecret        string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	CookieSecure         bool          `env:"COOKIE_SECURE" envDefault:"true"`
	SessionPurgeSchedule string        `env:"SESSION_PURGE_SCHEDULE" envDefault:"@hourly"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be complete on its own.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.SessionSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be positive"))
	}
	return errors.Join(errs...)
}
