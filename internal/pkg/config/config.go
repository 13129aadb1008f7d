package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const minSecretBytes = 32

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	BcryptCost   int      `env:"BCRYPT_COST,          default=10"`
	CORSOrigins  []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000"`
	AuditWorkers int      `env:"AUDIT_WORKERS,        default=4"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	TTL        time.Duration `env:"SESSION_TTL,        default=24h"`
	CookieName string        `env:"SESSION_COOKIE,     default=token"`
	SameSite   string        `env:"SESSION_SAMESITE,   default=strict"`
	Revocation bool          `env:"SESSION_REVOCATION, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=lastmile"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads a .env file when present, then the process environment, and
// validates the result. Real environment variables win over .env entries.
func Load(ctx context.Context) (*Config, error) {
	loadEnvFile()
	return FromLookuper(ctx, envconfig.OsLookuper())
}

// FromLookuper builds a Config from an arbitrary variable source.
func FromLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile() {
	if err := godotenv.Load(); err == nil {
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

// IsLocal reports whether the service runs on a developer machine, where
// cookies are sent without the Secure flag.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(c.Env) {
	case "development", "local", "test":
		return true
	}
	return false
}

// Validate checks the settings the auth boundary depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.IsLocal() && len(c.JWTSecret) < minSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside local development", minSecretBytes))
	}

	switch strings.ToLower(c.Session.SameSite) {
	case "strict", "lax":
	default:
		errs = append(errs, fmt.Errorf("SESSION_SAMESITE must be strict or lax, got %q", c.Session.SameSite))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
