package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const productionEnv = "production"

// Secret is a string that never renders its value in logs or JSON.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "****"
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Reveal returns the underlying secret value.
func (s Secret) Reveal() string {
	return string(s)
}

type Config struct {
	Port      string `env:"PORT,       default=4000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	JWTSecret     Secret `env:"JWT_SECRET, required"`
	AdminPassword Secret `env:"ADMIN_PASSWORD"`
	BcryptCost    int    `env:"BCRYPT_COST, default=10"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Revocation RevocationConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=authd"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Revocation backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type RevocationConfig struct {
	Backend       string        `env:"REVOCATION_BACKEND,        default=memory"`
	SweepInterval time.Duration `env:"REVOCATION_SWEEP_INTERVAL, default=1m"`
}

// IsProduction reports whether cookies must carry the Secure attribute.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, productionEnv)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l, which lets tests supply a map.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret.Reveal()) == "" {
		return fmt.Errorf("JWT_SECRET must not be blank")
	}
	switch c.Revocation.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("REVOCATION_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.Revocation.Backend)
	}
	return nil
}
