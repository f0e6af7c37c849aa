package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("BLOB_USE_SSL", "true")
	t.Setenv("BLOB_BUCKET", "vault")
	t.Setenv("TAG_CACHE_TTL", "30s")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Blob.UseSSL)
	assert.Equal(t, "vault", cfg.Blob.Bucket)
	assert.Equal(t, "minio", cfg.Blob.Backend)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "access_token", cfg.Access.CookieName)
	assert.Empty(t, cfg.Access.CodeHash)
}

func TestLoad_LegacyMinIOVariables(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_BUCKET", "files")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	assert.Equal(t, "minio:9000", cfg.Blob.Endpoint)
	assert.Equal(t, "files", cfg.Blob.Bucket)
	assert.True(t, cfg.Blob.UseSSL)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	os.Setenv(key, "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration(key, time.Second))

	os.Setenv(key, "soon")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))

	os.Unsetenv(key)
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))
}

func TestLogConfigLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LogConfig{}.Location())
	assert.Equal(t, time.UTC, LogConfig{TimeZone: "Not/AZone"}.Location())
	assert.Equal(t, "Europe/Copenhagen", LogConfig{TimeZone: "Europe/Copenhagen"}.Location().String())
}
