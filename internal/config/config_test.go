package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "ROOM_CAPACITY", "STATE_TICK_MS", "TIME_SYNC_INTERVAL_MS",
		"FINISH_BONUS", "RATE_LIMIT_PER_IP", "ACTION_THROTTLE_MS", "CHAT_THROTTLE_MS",
		"ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_PRETTY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 30, cfg.RoomCapacity)
	assert.Equal(t, 200*time.Millisecond, cfg.StateTick)
	assert.Equal(t, 5*time.Second, cfg.TimeSyncInterval)
	assert.Equal(t, 1000, cfg.FinishBonus)
	assert.Equal(t, 30*time.Millisecond, cfg.ActionThrottle)
	assert.Equal(t, 300*time.Millisecond, cfg.ChatThrottle)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ROOM_CAPACITY", "4")
	t.Setenv("STATE_TICK_MS", "50")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 4, cfg.RoomCapacity)
	assert.Equal(t, 50*time.Millisecond, cfg.StateTick)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ROOM_CAPACITY", "lots")
	t.Setenv("STATE_TICK_MS", "-5")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	assert.Equal(t, 30, cfg.RoomCapacity)
	assert.Equal(t, 200*time.Millisecond, cfg.StateTick)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}
