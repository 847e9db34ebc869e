package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ugaemi/bugbusters-server/internal/game"
	"github.com/ugaemi/bugbusters-server/internal/leaderboard"
)

// Leaderboard backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendHTTP     = "http"
)

type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	LeaderboardBackend string
	LeaderboardLimit   int
	LeaderboardURL     string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	Round game.Config
}

// Load reads configuration from the environment, after an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnvInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		LeaderboardBackend: getEnv("LEADERBOARD_BACKEND", BackendMemory),
		LeaderboardLimit:   getEnvInt("LEADERBOARD_LIMIT", leaderboard.DefaultLimit),
		LeaderboardURL:     getEnv("LEADERBOARD_URL", ""),
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/bugbusters?sslmode=disable"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),

		Round: game.Config{
			RoundDuration:   getEnvDuration("ROUND_DURATION", game.DefaultRoundDuration),
			DangerThreshold: getEnvDuration("DANGER_THRESHOLD", game.DefaultDangerThreshold),
			TickInterval:    getEnvDuration("TICK_INTERVAL", game.DefaultTickInterval),
			HopMin:          getEnvDuration("HOP_MIN", game.DefaultHopMin),
			HopMax:          getEnvDuration("HOP_MAX", game.DefaultHopMax),
			HitDebounce:     getEnvDuration("HIT_DEBOUNCE", game.DefaultHitDebounce),
			TargetSize:      getEnvInt("TARGET_SIZE", game.DefaultTargetSize),
		}.Normalize(),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("750ms") or bare milliseconds ("750").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
