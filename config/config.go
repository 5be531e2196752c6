package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceLive   = "live"
	SourceCached = "cached"
	SourceStatic = "static"

	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"

	sandboxBaseURL    = "https://api.tmsandbox.co.nz/v1"
	productionBaseURL = "https://api.trademe.co.nz/v1"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port     string
	LogLevel string

	DataSource     string
	StaticDataPath string

	TradeMeConsumerKey    string
	TradeMeConsumerSecret string
	TradeMeEnv            string
	TradeMeCategory       string
	TradeMeRows           int
	HTTPClientTimeoutSec  int
	TradeMeRateLimitMs    int

	StoreDriver  string
	DBMaxRetries int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DataSource:     strings.ToLower(getEnv("DATA_SOURCE", SourceLive)),
		StaticDataPath: getEnv("STATIC_DATA_PATH", "./data/open-homes.json"),

		TradeMeConsumerKey:    getEnv("TRADEME_CONSUMER_KEY", ""),
		TradeMeConsumerSecret: getEnv("TRADEME_CONSUMER_SECRET", ""),
		TradeMeEnv:            strings.ToLower(getEnv("TRADEME_ENV", "sandbox")),
		TradeMeCategory:       getEnv("TRADEME_CATEGORY", ""),
		TradeMeRows:           getEnvInt("TRADEME_ROWS", 50),
		HTTPClientTimeoutSec:  getEnvInt("HTTP_CLIENT_TIMEOUT_SECONDS", 0),
		TradeMeRateLimitMs:    getEnvInt("TRADEME_RATE_LIMIT_MS", 0),

		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBMaxRetries: getEnvInt("DB_MAX_RETRIES", 5),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "openhomes"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "openhomes"),
		PostgresDB:       getEnv("POSTGRES_DB", "openhomes"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGODB_DATABASE", "openhomes"),
		MongoCollection: getEnv("MONGODB_COLLECTION", "open_homes"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 60),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// TradeMeBaseURL picks the API host for the configured environment.
// Anything other than "production" talks to the sandbox.
func (c *Config) TradeMeBaseURL() string {
	if c.TradeMeEnv == "production" {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// HasCredentials reports whether both consumer credentials are present.
func (c *Config) HasCredentials() bool {
	return c.TradeMeConsumerKey != "" && c.TradeMeConsumerSecret != ""
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) HTTPClientTimeout() time.Duration {
	return time.Duration(c.HTTPClientTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}
