package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "jwt_secret: test-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 24*time.Hour, cfg.StoryTTL())
	assert.Equal(t, 15*time.Minute, cfg.S3.PresignTTL())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
port: 9000
env: production
jwt_secret: super-secret
web_url: https://echo88.app
allowed_origins:
  - https://echo88.app
  - "*.echo88.app"
database:
  host: db.internal
  port: 3307
  user: echo88
  password: pw
  name: echo88_prod
redis:
  host: cache.internal
  port: 6380
  db: 2
  tls: true
mail:
  enable: true
  resend_key: re_abc
  from: no-reply@echo88.app
s3:
  enable: true
  bucket: echo88-media
  region: eu-west-1
story_ttl_hours: 48
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, []string{"https://echo88.app", "*.echo88.app"}, cfg.AllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.StoryTTL())
	assert.Equal(t, "echo88-media", cfg.S3.Bucket)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "jwt_secret: s\nbogus_key: 1\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, "jwt_secret: s\nport: 99999\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestDatabaseDSNValue(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db.internal",
		Port:     3307,
		User:     "echo88",
		Password: "pw",
		Name:     "echo88_prod",
	}
	dsn := c.DSNValue()
	assert.Contains(t, dsn, "echo88:pw@tcp(db.internal:3307)/echo88_prod")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDatabaseDSNValuePrefersExplicitDSN(t *testing.T) {
	c := DatabaseConfig{DSN: "u:p@tcp(h:1)/d", Host: "ignored"}
	assert.Equal(t, "u:p@tcp(h:1)/d", c.DSNValue())
}

func TestRedisURLValue(t *testing.T) {
	c := RedisConfig{Host: "cache.internal", Port: 6380, DB: 2, Password: "pw", TLS: true}
	assert.Equal(t, "rediss://:pw@cache.internal:6380/2", c.URLValue())
}

func TestRedisURLValueAddsScheme(t *testing.T) {
	c := RedisConfig{URL: "localhost:6379/0"}
	assert.Equal(t, "redis://localhost:6379/0", c.URLValue())
}
