package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source kinds accepted in DATA_SOURCE.
const (
	SourceFile     = "file"
	SourceRemote   = "remote"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataSource   string
	DataFile     string
	CSVDelimiter rune

	DatastoreURL        string
	DatastoreResourceID string
	DatastorePageLimit  int
	DatastoreMaxRecords int
	HTTPTimeout         time.Duration
	MaxConcurrency      int
	RateLimitMs         int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	HTTPAddr   string
	ExportPath string
	LogLevel   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		DataSource:   getEnv("DATA_SOURCE", SourceFile),
		DataFile:     getEnv("DATA_FILE", "./data/resale-flat-prices.csv"),
		CSVDelimiter: getEnvRune("CSV_DELIMITER", ','),

		DatastoreURL:        getEnv("DATASTORE_URL", "https://data.gov.sg/api/action/datastore_search"),
		DatastoreResourceID: getEnv("DATASTORE_RESOURCE_ID", "f1765b54-a209-4718-8d38-a39237f502b3"),
		DatastorePageLimit:  getEnvInt("DATASTORE_PAGE_LIMIT", 5000),
		DatastoreMaxRecords: getEnvInt("DATASTORE_MAX_RECORDS", 0),
		HTTPTimeout:         time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		MaxConcurrency:      getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:         getEnvInt("RATE_LIMIT_MS", 250),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "hdb"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "hdb123"),
		PostgresDB:       getEnv("POSTGRES_DB", "resale_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),

		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
		ExportPath: getEnv("EXPORT_PATH", "./output/filtered.csv"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
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

// RateLimit returns the minimum interval between remote page requests.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Printf("[config] Invalid integer for %s=%q, using default %d", key, val, fallback)
	}
	return fallback
}

func getEnvRune(key string, fallback rune) rune {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if val == `\t` {
		return '\t'
	}
	return []rune(val)[0]
}
