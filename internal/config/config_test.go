package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "0.0.0.0:7521", cfg.HTTP.Addr())
	assert.Equal(t, "getnotes", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Second, cfg.Editor.AutosaveDelay)
	assert.Equal(t, 30*time.Minute, cfg.Editor.IdleTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("AUTOSAVE_DELAY", "750ms")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, 750*time.Millisecond, cfg.Editor.AutosaveDelay)
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoad_RejectsNonPositiveDelay(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTOSAVE_DELAY", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTOSAVE_DELAY")
}
