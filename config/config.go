package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
// Storefront behaviour lives in the Webshop Settings record, not here.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	// Store selects the Record Store backend: "postgres" or "memory".
	Store string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	ShopperSecret string
	AdminSecret   string
	Expiration    time.Duration
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Prefix string
}

type CacheConfig struct {
	FilterOptionsTTL time.Duration
	CatalogCountTTL  time.Duration
	CategoryTreeTTL  time.Duration
}

// Load reads the configuration, loading .env first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8081"),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: []string{getEnv("STOREFRONT_ORIGIN", "http://localhost:3000"), getEnv("ADMIN_ORIGIN", "http://localhost:3001")},
			Store:          getEnv("RECORD_STORE", "postgres"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("WEBSHOP_DB_URL"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "modeva_webshop"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 2*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		JWT: JWTConfig{
			ShopperSecret: getEnv("JWT_SECRET", ""),
			AdminSecret:   getEnv("ADMIN_JWT_SECRET", getEnv("JWT_SECRET", "")),
			Expiration:    getEnvAsDuration("JWT_EXPIRATION", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "webshop"),
		},
		Cache: CacheConfig{
			FilterOptionsTTL: getEnvAsDuration("CACHE_FILTER_OPTIONS_TTL", 10*time.Minute),
			CatalogCountTTL:  getEnvAsDuration("CACHE_CATALOG_COUNT_TTL", time.Hour),
			CategoryTreeTTL:  getEnvAsDuration("CACHE_CATEGORY_TREE_TTL", 5*time.Minute),
		},
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
