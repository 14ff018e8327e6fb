package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://lims@localhost:5432/lims")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "lims", cfg.Schema)
	require.Equal(t, "lims_app", cfg.AppRole)
	require.Equal(t, int32(4), cfg.MaxConns)
	require.Equal(t, 10, cfg.NameMaxRetries)
	require.Equal(t, int32(28), cfg.DecimalPrecision)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://lims@localhost:5432/lims")
	t.Setenv("NAME_MAX_RETRIES", "3")
	t.Setenv("DECIMAL_PRECISION", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.NameMaxRetries)
	require.Equal(t, int32(12), cfg.DecimalPrecision)
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}
