package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CASHIER_CHAT_ID", "5065182020")
	t.Setenv("CHANNEL_ID", "-1002471456650")
	t.Setenv("COMPLAINTS_CHAT_ID", "-4791648333")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-1002471456650), cfg.ChannelID)
	assert.Equal(t, 30, cfg.RateMaxCalls)
	assert.Equal(t, time.Second, cfg.RatePeriod)
	assert.Equal(t, 5, cfg.RetryMax)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBase)
	assert.Equal(t, 2*time.Second, cfg.LocationWait)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 8, cfg.PGMaxConns)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RETRY_BASE", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBase)
}

func TestLoad_BadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_MAX_CALLS", "many")
	t.Setenv("RATE_PERIOD", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_MAX_CALLS")
	assert.Contains(t, err.Error(), "RATE_PERIOD")
}

func TestLoad_MissingChats(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CASHIER_CHAT_ID", "")
	t.Setenv("CHANNEL_ID", "")
	t.Setenv("COMPLAINTS_CHAT_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "CASHIER_CHAT_ID")
}
