package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("OWNER_SECRET", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("SYNC_CHUNK_SIZE", "")

	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "dev_secret", cfg.OwnerSecret)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Equal(t, 200, cfg.ChunkSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("OWNER_SECRET", "s3cret")
	t.Setenv("DATABASE_DSN", "possync.db")
	t.Setenv("SYNC_CHUNK_SIZE", "50")
	t.Setenv("REPORT_TZ", "America/Argentina/Buenos_Aires")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "s3cret", cfg.OwnerSecret)
	assert.Equal(t, "possync.db", cfg.DatabaseDSN)
	assert.Equal(t, 50, cfg.ChunkSize)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.ReportTZ)
}

func TestInvalidChunkSizeFallsBack(t *testing.T) {
	t.Setenv("SYNC_CHUNK_SIZE", "not-a-number")
	assert.Equal(t, 200, Load().ChunkSize)

	t.Setenv("SYNC_CHUNK_SIZE", "-5")
	assert.Equal(t, 200, Load().ChunkSize)
}
