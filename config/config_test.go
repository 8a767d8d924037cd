package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("METRICS_INTERVAL", "")
	t.Setenv("TRAFFIC_SPIKE_THRESHOLD", "")
	t.Setenv("SEED_DEMO", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.MetricsInterval)
	assert.Equal(t, int64(500), cfg.TrafficSpikeThreshold)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/portfolio?parseTime=true")
	t.Setenv("METRICS_INTERVAL", "5s")
	t.Setenv("ERROR_RATE_THRESHOLD", "0.5")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.MetricsInterval)
	assert.Equal(t, 0.5, cfg.ErrorRateThreshold)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("METRICS_INTERVAL", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("METRICS_INTERVAL", "")
	t.Setenv("SEED_DEMO", "sometimes")
	_, err = Load()
	assert.Error(t, err)
}
