package config_test

import (
	"testing"

	"placement-excluder/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "placement-excluder", cfg.Storage.Bucket)
	assert.Equal(t, "localhost:6379", cfg.Bus.Addr)
	assert.Equal(t, 5, cfg.Bus.MaxDeliveries)
	assert.Equal(t, "PLACEMENT_EXCLUDER", cfg.Warehouse.Database)
	assert.Equal(t, 50, cfg.Enrich.ChunkSize)
	assert.False(t, cfg.Ads.ValidateOnly)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENRICH_CHUNK_SIZE", "25")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Enrich.ChunkSize)
}
