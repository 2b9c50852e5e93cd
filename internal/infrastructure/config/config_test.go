package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "tyrefleet", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "tyrefleet", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 3, cfg.Database.TxMaxAttempts)
		assert.Equal(t, SequenceBackendDatabase, cfg.Sequence.Backend)
		assert.Equal(t, "1400", cfg.Finance.InventoryAccount)
		assert.Equal(t, "2100", cfg.Finance.PayableAccount)
		assert.Equal(t, "1000", cfg.Finance.CashAccount)
		assert.Equal(t, time.Hour, cfg.Scheduler.ReconcileInterval)
		assert.Equal(t, 5*time.Minute, cfg.Cache.ActorTTL)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("TYRE_APP_PORT", "9000")
		t.Setenv("TYRE_DATABASE_HOST", "db.internal")
		t.Setenv("TYRE_DATABASE_PORT", "5433")
		t.Setenv("TYRE_FINANCE_PAYABLE_ACCOUNT", "2200")
		t.Setenv("TYRE_SCHEDULER_RECONCILE_INTERVAL", "30m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "2200", cfg.Finance.PayableAccount)
		assert.Equal(t, 30*time.Minute, cfg.Scheduler.ReconcileInterval)
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		t.Setenv("TYRE_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("TYRE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("rejects unknown sequence backend", func(t *testing.T) {
		t.Setenv("TYRE_SEQUENCE_BACKEND", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sequence.backend")
	})

	t.Run("redis sequence backend needs redis", func(t *testing.T) {
		t.Setenv("TYRE_SEQUENCE_BACKEND", "redis")

		_, err := Load()
		require.Error(t, err)

		t.Setenv("TYRE_REDIS_ENABLED", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, SequenceBackendRedis, cfg.Sequence.Backend)
	})

	t.Run("rejects duplicate account codes", func(t *testing.T) {
		t.Setenv("TYRE_FINANCE_CASH_ACCOUNT", "1400")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "distinct")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Setenv("TYRE_APP_ENV", "production")
	t.Setenv("TYRE_DATABASE_PASSWORD", "secure-password")
	t.Setenv("TYRE_DATABASE_SSLMODE", "require")

	t.Run("requires jwt secret", func(t *testing.T) {
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("requires a long jwt secret", func(t *testing.T) {
		t.Setenv("TYRE_JWT_SECRET", "short")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("accepts a complete production config", func(t *testing.T) {
		t.Setenv("TYRE_JWT_SECRET", strings.Repeat("s", 40))
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("rejects sslmode disable", func(t *testing.T) {
		t.Setenv("TYRE_JWT_SECRET", strings.Repeat("s", 40))
		t.Setenv("TYRE_DATABASE_SSLMODE", "disable")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "tyre",
		Password: "p@ss:word/1",
		DBName:   "tyrefleet",
		SSLMode:  "disable",
	}
	dsn := d.DSN()
	assert.True(t, strings.HasPrefix(dsn, "postgres://tyre:"))
	assert.Contains(t, dsn, "localhost:5432/tyrefleet")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.NotContains(t, dsn, "p@ss:word/1")
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
