package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr         string
	Storage      string
	SeedDemo     bool
	Database     Database
	JWTSecret    string
	AllowOrigins string
	LogLevel     string
	LogFormat    string
	Client       Client
}

// Database configures the SQL storage backends.
type Database struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Client configures the users API client proxy.
type Client struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:         getenv("USERS_API_ADDR", ":8080"),
		Storage:      strings.ToLower(getenv("USERS_STORAGE", StorageMemory)),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AllowOrigins: getenv("CORS_ALLOW_ORIGINS", "*"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		Database: Database{
			Driver: getenv("DATABASE_DRIVER", "pgx"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Client: Client{
			BaseURL: strings.TrimRight(getenv("USERS_API_URL", "http://localhost:8080/api/v1/users"), "/"),
			Token:   os.Getenv("USERS_API_TOKEN"),
		},
	}

	var err error
	if cfg.SeedDemo, err = getbool("USERS_SEED_DEMO", true); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxOpenConns, err = getint("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxIdleConns, err = getint("DB_MAX_IDLE_CONNS", 5); err != nil {
		return Config{}, err
	}
	if cfg.Database.ConnMaxLifetime, err = getduration("DB_CONN_MAX_LIFETIME", 3*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Client.Timeout, err = getduration("USERS_API_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres, StorageSQLite:
		if cfg.Database.URL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for %s storage", cfg.Storage)
		}
		if cfg.Storage == StorageSQLite {
			cfg.Database.Driver = "sqlite3"
		}
	default:
		return Config{}, fmt.Errorf("unknown USERS_STORAGE %q", cfg.Storage)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getbool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
