package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"REGISTRAR_ADDR", "LOG_LEVEL", "LOG_FORMAT", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"CORS_ALLOWED_ORIGINS", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME", "REDIS_URL", "REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS",
	"REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"AUDIT_KAFKA_BROKERS", "AUDIT_KAFKA_TOPIC", "AUDIT_BUFFER_SIZE", "STUDENT_CACHE_TTL",
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Audit.Brokers)
	assert.Equal(t, "registrar.audit", cfg.Audit.Topic)
	assert.Equal(t, 1024, cfg.Audit.BufferSize)
	assert.Equal(t, 5*time.Minute, cfg.StudentCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REGISTRAR_ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/school")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("STUDENT_CACHE_TTL", "90s")
	t.Setenv("AUDIT_KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/school", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, 90*time.Second, cfg.StudentCacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.Brokers)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_MAX_OPEN_CONNS", "many"},
		{"AUDIT_BUFFER_SIZE", "-1"},
		{"STUDENT_CACHE_TTL", "5 minutes"},
		{"REQUEST_TIMEOUT", "-3s"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	clearEnv(t)
	// godotenv treats a key set to "" as present, so drop it entirely.
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nREGISTRAR_ADDR=:7000\n"), 0o600))
	t.Setenv("REGISTRAR_ADDR", ":8100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8100", cfg.Addr)
}

func TestLoadToleratesMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
