package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017/", settings.MongoDSN)
	assert.Equal(t, "document-store", settings.MongoDBName)
	assert.Equal(t, ":6543", settings.HTTPAddr)
	assert.False(t, settings.PrometheusEnabled)
	assert.Equal(t, 8087, settings.PrometheusPort)
	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, "", settings.LogFile)
	assert.Equal(t, 4, settings.MaxRetries)
	assert.Equal(t, 1.2, settings.BackoffFactor)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KERNEL_APP_MONGODB_DSN", "mongodb://mongo:27017/")
	t.Setenv("KERNEL_APP_HTTP_ADDR", ":8000")
	t.Setenv("KERNEL_APP_PROMETHEUS_ENABLED", "true")
	t.Setenv("KERNEL_LIB_MAX_RETRIES", "2")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://mongo:27017/", settings.MongoDSN)
	assert.Equal(t, ":8000", settings.HTTPAddr)
	assert.True(t, settings.PrometheusEnabled)
	assert.Equal(t, 2, settings.MaxRetries)
}

func TestLoad_UnprefixedDSNAlias(t *testing.T) {
	t.Setenv("APP_MONGODB_DSN", "mongodb://legacy:27017/")

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://legacy:27017/", settings.MongoDSN)
}
