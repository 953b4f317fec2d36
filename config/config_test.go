package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("DATASTORE_PAGE_LIMIT", "")

	cfg := FromEnv()
	assert.Equal(t, SourceFile, cfg.DataSource)
	assert.Equal(t, 5000, cfg.DatastorePageLimit)
	assert.Equal(t, ',', cfg.CSVDelimiter)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATA_SOURCE", SourceRemote)
	t.Setenv("DATASTORE_PAGE_LIMIT", "100")
	t.Setenv("CSV_DELIMITER", `\t`)
	t.Setenv("RATE_LIMIT_MS", "50")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, SourceRemote, cfg.DataSource)
	assert.Equal(t, 100, cfg.DatastorePageLimit)
	assert.Equal(t, '\t', cfg.CSVDelimiter)
	assert.Equal(t, 50*time.Millisecond, cfg.RateLimit())
	assert.Equal(t, 3, cfg.MaxConcurrency)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
