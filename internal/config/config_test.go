package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SERVER_PORT", "ENVIRONMENT", "LOG_LEVEL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"TICKER_SYMBOLS", "TICKER_INTERVAL", "TICKER_START_PRICE",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ledger.entry_posted", cfg.KafkaTopic)
	assert.Equal(t, []string{"TSIM"}, cfg.TickerSymbols)
	assert.Equal(t, 500*time.Millisecond, cfg.TickerInterval)
	assert.Equal(t, 100.0, cfg.TickerStartPrice)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TICKER_SYMBOLS", "AAA,BBB")
	t.Setenv("TICKER_INTERVAL", "2s")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"AAA", "BBB"}, cfg.TickerSymbols)
	assert.Equal(t, 2*time.Second, cfg.TickerInterval)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7070\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("SERVER_PORT", "6060")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port)
}

func TestLoad_RejectsBadTicker(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKER_START_PRICE", "-1")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICKER_START_PRICE")
}
