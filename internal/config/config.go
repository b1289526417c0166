package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/scythe504/speedboard/internal"
)

type Config struct {
	Addr             string
	DatabaseURL      string
	RoomCapacity     int
	StateTick        time.Duration
	TimeSyncInterval time.Duration
	FinishBonus      int
	RateLimitPerIP   float64
	ActionThrottle   time.Duration
	ChatThrottle     time.Duration
	AllowedOrigins   []string
	LogLevel         zerolog.Level
	LogPretty        bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:             ":" + envStr("PORT", "4000"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		RoomCapacity:     envInt("ROOM_CAPACITY", internal.RoomCapacity),
		StateTick:        envMillis("STATE_TICK_MS", internal.StateTickInterval),
		TimeSyncInterval: envMillis("TIME_SYNC_INTERVAL_MS", internal.TimeSyncInterval),
		FinishBonus:      envInt("FINISH_BONUS", internal.FinishBonus),
		RateLimitPerIP:   float64(envInt("RATE_LIMIT_PER_IP", 20)),
		ActionThrottle:   envMillis("ACTION_THROTTLE_MS", internal.ActionThrottle),
		ChatThrottle:     envMillis("CHAT_THROTTLE_MS", internal.ChatThrottle),
		AllowedOrigins:   envList("ALLOWED_ORIGINS"),
		LogLevel:         envLevel("LOG_LEVEL", zerolog.InfoLevel),
		LogPretty:        envBool("LOG_PRETTY", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envMillis(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envLevel(key string, fallback zerolog.Level) zerolog.Level {
	if v := os.Getenv(key); v != "" {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			return lvl
		}
	}
	return fallback
}
