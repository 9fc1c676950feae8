package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, cfg.DatabasePath, cfg.DSN())
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.DefaultTopN)
	assert.Equal(t, 20, cfg.MaxGroups)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "1")
	t.Setenv("MAX_GROUPS", "8")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/court_outcomes")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.MaxGroups)
	assert.Equal(t, "postgres://u:p@localhost:5432/court_outcomes", cfg.DSN())
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric cache size", "CACHE_SIZE", "lots"},
		{"non-numeric ttl", "CACHE_TTL", "soon"},
		{"non-numeric timeout", "QUERY_TIMEOUT", "forever"},
		{"zero top n", "DEFAULT_TOP_N", "0"},
		{"unknown driver", "DATABASE_DRIVER", "oracle"},
		{"postgres without url", "DATABASE_DRIVER", "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
