// Package config provides runtime configuration for the coordinator.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the coordinator's configuration knobs.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":8081".
	HTTPAddr string
	// OwnerSecret is the shared secret for /owner and /admin endpoints.
	OwnerSecret string
	// DatabaseDSN is the SQLite DSN for the durable backend. Empty means
	// memory-only operation.
	DatabaseDSN string
	// ReportTZ is the IANA time zone name used for daily report buckets.
	// Empty means the process local zone.
	ReportTZ string
	// ChunkSize bounds the row count of each durable catalog write.
	ChunkSize int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Load reads configuration from the environment, honoring a .env file when
// present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8081"),
		OwnerSecret: getenv("OWNER_SECRET", "dev_secret"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		ReportTZ:    os.Getenv("REPORT_TZ"),
		ChunkSize:   atoienv("SYNC_CHUNK_SIZE", 200),
	}
}
