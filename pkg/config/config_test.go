package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "BODY_LIMIT_MB", "PAGINATION_DEFAULT_LIMIT", "PAGINATION_MAX_LIMIT",
		"JWT_TTL", "DB_AUTO_MIGRATE", "RABBITMQ_QUEUE", "RECONCILE_SCHEDULE",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY", "R2_SECRET_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_URL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/listings")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "properties_queue", cfg.Broker.Queue)
	assert.Equal(t, "*/15 * * * *", cfg.Cron.ReconcileSchedule)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "12")
	t.Setenv("PAGINATION_MAX_LIMIT", "5")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY", "key")
	t.Setenv("R2_SECRET_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "bucket")
	t.Setenv("R2_PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("BODY_LIMIT_MB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, 12, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 12, cfg.Pagination.MaxLimit, "max is raised to the default")
	assert.Equal(t, 90*time.Minute, cfg.JWT.TTL)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicURL)
	assert.Equal(t, 50, cfg.Server.BodyLimitMB)
}

func TestLoadRequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/listings")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
