package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-saga/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := config.FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "minishop", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 1024, cfg.Bus.QueueSize)
	assert.Equal(t, 10*time.Second, cfg.Bus.HandlerTimeout)
	assert.Equal(t, 0.7, cfg.Gateway.SuccessRate)
	assert.Equal(t, uint32(5), cfg.Gateway.BreakerFailures)
	assert.False(t, cfg.OrderAdvanceOnDelivery)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestOverrides(t *testing.T) {
	cfg, err := config.FromLookup(lookup(map[string]string{
		"HTTP_ADDR":                 ":9090",
		"BUS_WORKERS":               "2",
		"GATEWAY_TIMEOUT":           "750ms",
		"GATEWAY_SUCCESS_RATE":      "1",
		"KAFKA_BROKERS":             "k1:9092, k2:9092,",
		"ORDER_ADVANCE_ON_DELIVERY": "true",
		"SHIPPING_DEFAULT_CARRIER":  "HANJIN",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2, cfg.Bus.Workers)
	assert.Equal(t, 750*time.Millisecond, cfg.Gateway.Timeout)
	assert.Equal(t, 1.0, cfg.Gateway.SuccessRate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.OrderAdvanceOnDelivery)
	assert.Equal(t, "HANJIN", cfg.DefaultCarrier)
}

func TestInvalidValues(t *testing.T) {
	_, err := config.FromLookup(lookup(map[string]string{
		"BUS_WORKERS":          "many",
		"GATEWAY_TIMEOUT":      "soon",
		"GATEWAY_SUCCESS_RATE": "1.5",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUS_WORKERS must be an integer")
	assert.Contains(t, err.Error(), "GATEWAY_TIMEOUT must be a duration")

	_, err = config.FromLookup(lookup(map[string]string{"GATEWAY_SUCCESS_RATE": "1.5"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_SUCCESS_RATE must be between 0 and 1")

	_, err = config.FromLookup(lookup(map[string]string{"BUS_QUEUE_SIZE": "0"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUS_QUEUE_SIZE must be positive")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVICE_NAME=from-file\nHTTP_ADDR=:7070\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("HTTP_ADDR", ":6060")
	t.Setenv("SERVICE_NAME", "")
	require.NoError(t, os.Unsetenv("SERVICE_NAME"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
}
