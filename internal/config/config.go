package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

// Config is built once at startup and handed to constructors by value.
type Config struct {
	ProjectName    string `env:"PROJECT_NAME" envDefault:"device-registry"`
	ServerPort     string `env:"SERVER_PORT" envDefault:"8080"`
	APIV1Prefix    string `env:"API_V1_STR" envDefault:"/api/v1"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`

	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresServer   string `env:"POSTGRES_SERVER"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`

	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"10m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`

	RedisURL string `env:"REDIS_URL"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTAlgorithm string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"192h"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"12"`

	FirstSuperuserEmail    string `env:"FIRST_SUPERUSER_USERNAME"`
	FirstSuperuserPassword string `env:"FIRST_SUPERUSER_PASSWORD"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	BackendCORSOrigins []string `env:"BACKEND_CORS_ORIGINS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.assembleDatabaseURL()
	}
	cfg.BackendCORSOrigins = trimOrigins(cfg.BackendCORSOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// assembleDatabaseURL builds a DSN from the POSTGRES_* parts when all of
// them are present.
func (c Config) assembleDatabaseURL() string {
	if c.PostgresServer == "" || c.PostgresDB == "" || c.PostgresUser == "" || c.PostgresPassword == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   c.PostgresServer + ":" + c.PostgresPort,
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}

func trimOrigins(raw []string) []string {
	var origins []string
	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}

	switch c.StorageBackend {
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL or POSTGRES_SERVER/POSTGRES_DB/POSTGRES_USER/POSTGRES_PASSWORD is required")
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	if (c.FirstSuperuserEmail == "") != (c.FirstSuperuserPassword == "") {
		return errors.New("FIRST_SUPERUSER_USERNAME and FIRST_SUPERUSER_PASSWORD must be set together")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.ServerPort
}
