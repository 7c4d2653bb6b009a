package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/model"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "auth")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "auth")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, "auth-service", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, model.NewRoles("customer"), cfg.DefaultRoles)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EventsEnabled)
	assert.False(t, cfg.AuditConsumerEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TOKEN_TTL_SECONDS", "90")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("DEFAULT_ROLES", "customer, test")
	t.Setenv("AMQP_URL", "amqp://a/")
	t.Setenv("RABBITMQ_URL", "amqp://b/")
	t.Setenv("EVENTS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, model.NewRoles("customer", "test"), cfg.DefaultRoles)
	assert.Equal(t, "amqp://b/", cfg.AMQPURL)
	assert.True(t, cfg.EventsEnabled)
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("BCRYPT_COST", "abc")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "JWT_SECRET", "BCRYPT_COST"} {
		assert.Contains(t, msg, want)
	}
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_TTL_SECONDS", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL_SECONDS")
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL, "ttl is raised to five refill intervals")
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")
	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	addr := mr.Addr()
	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	// Addr is unusable once the server is closed; reuse the captured one.
	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
