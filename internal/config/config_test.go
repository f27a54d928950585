package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs is a helper that sets multiple env vars for the test's duration.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8006, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "checkout_db", cfg.PostgresDB)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "http://localhost:8001", cfg.StoreServiceURL)
	assert.Equal(t, 30, cfg.SessionTTLMinutes)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"CHECKOUT_HTTP_PORT":           "9100",
		"KAFKA_BROKERS":                "broker-1:9092,broker-2:9092",
		"CHECKOUT_SESSION_TTL_MINUTES": "45",
		"STORE_SERVICE_URL":            "http://stores.internal:8001",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 45, cfg.SessionTTLMinutes)
	assert.Equal(t, "http://stores.internal:8001", cfg.StoreServiceURL)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnvs(t, map[string]string{"CHECKOUT_HTTP_PORT": "70000"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	setEnvs(t, map[string]string{"CHECKOUT_SESSION_TTL_MINUTES": "0"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKOUT_SESSION_TTL_MINUTES")
}

func TestLoad_InvalidServiceURL(t *testing.T) {
	setEnvs(t, map[string]string{"ORDER_SERVICE_URL": "not a url"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_SERVICE_URL")
}

func TestLoad_InvalidSampleRate(t *testing.T) {
	setEnvs(t, map[string]string{"OTEL_SAMPLE_RATE": "1.5"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE")
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{
		SessionTTLMinutes:      30,
		ExpirySweepSeconds:     60,
		CapabilityCacheTTLSecs: 300,
	}

	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval())
	assert.Equal(t, 5*time.Minute, cfg.CapabilityCacheTTL())
}
