package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	// StoreBackend selects the subscriber record store: "sql" or "redis".
	StoreBackend string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis RedisConfig

	SubscriberCodeTemplate string
	CatalogPath            string
	DefaultOperator        string
	DefaultOperatorRole    string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

const (
	StoreBackendSQL   = "sql"
	StoreBackendRedis = "redis"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewCatalogHolder),
)

var ErrUnknownStoreBackend = errors.New("unknown_store_backend")

// Load loads configuration from environment variables and .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	backend, err := normalizeStoreBackend(getenv("STORE_BACKEND", StoreBackendSQL))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "cabledesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		StoreBackend: backend,

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "sqlite")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "cabledesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "data/cabledesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		Redis: RedisConfig{
			Addr:      strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password:  strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:        getenvInt("REDIS_DB", 0),
			KeyPrefix: strings.TrimSpace(getenv("REDIS_KEY_PREFIX", "cabledesk")),
		},

		SubscriberCodeTemplate: strings.TrimSpace(getenv("SUBSCRIBER_CODE_TEMPLATE", "SUB-{YYYY}{MM}{DD}-{SEQ3}")),
		CatalogPath:            strings.TrimSpace(getenv("CATALOG_PATH", "")),
		DefaultOperator:        strings.TrimSpace(getenv("DEFAULT_OPERATOR", "admin")),
		DefaultOperatorRole:    strings.ToLower(strings.TrimSpace(getenv("DEFAULT_OPERATOR_ROLE", "viewer"))),
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) UsesSQLStore() bool {
	return c.StoreBackend == StoreBackendSQL
}

func normalizeStoreBackend(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreBackendSQL, "":
		return StoreBackendSQL, nil
	case StoreBackendRedis, "kv", "blob":
		return StoreBackendRedis, nil
	}
	return "", fmt.Errorf("%w: STORE_BACKEND=%q, expected sql or redis", ErrUnknownStoreBackend, raw)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
