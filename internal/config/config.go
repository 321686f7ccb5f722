// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StoreKind selects where the session descriptor lives.
type StoreKind string

const (
	StoreFile     StoreKind = "file"
	StoreRedis    StoreKind = "redis"
	StorePostgres StoreKind = "postgres"
)

// Config is the client configuration, read from the environment.
type Config struct {
	ServerURL  string
	Token      string
	PlayerName string

	RoomID     string
	GameType   string
	MaxPlayers int
	PoolLimit  *int
	EntryFee   float64
	IsCreator  bool

	Store     StoreKind
	StorePath string

	ReconnectTimeout time.Duration
	ReconnectDelay   time.Duration

	JWTPublicKeyPath string
	LogLevel         logrus.Level
}

// Load reads every RUMMY_* variable, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		ServerURL:        getEnv("RUMMY_SERVER_URL", "ws://localhost:8080/ws"),
		Token:            os.Getenv("RUMMY_TOKEN"),
		PlayerName:       getEnv("RUMMY_PLAYER_NAME", "player"),
		RoomID:           os.Getenv("RUMMY_ROOM_ID"),
		GameType:         getEnv("RUMMY_GAME_TYPE", "points"),
		MaxPlayers:       getEnvInt("RUMMY_MAX_PLAYERS", 2),
		IsCreator:        getEnvBool("RUMMY_IS_CREATOR", false),
		Store:            StoreKind(strings.ToLower(getEnv("RUMMY_STORE", string(StoreFile)))),
		StorePath:        getEnv("RUMMY_STORE_PATH", defaultStorePath()),
		ReconnectTimeout: getEnvDuration("RUMMY_RECONNECT_TIMEOUT", 10*time.Second),
		ReconnectDelay:   getEnvDuration("RUMMY_RECONNECT_DELAY", 2*time.Second),
		JWTPublicKeyPath: os.Getenv("RUMMY_JWT_PUBLIC_KEY"),
		LogLevel:         logrus.InfoLevel,
	}

	if s := os.Getenv("RUMMY_POOL_LIMIT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("RUMMY_POOL_LIMIT: %w", err)
		}
		cfg.PoolLimit = &v
	}
	if s := os.Getenv("RUMMY_ENTRY_FEE"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return cfg, fmt.Errorf("RUMMY_ENTRY_FEE: %w", err)
		}
		cfg.EntryFee = v
	}
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		lvl, err := logrus.ParseLevel(s)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	switch cfg.Store {
	case StoreFile, StoreRedis, StorePostgres:
	default:
		return cfg, fmt.Errorf("RUMMY_STORE must be file, redis or postgres, got %q", cfg.Store)
	}
	if cfg.MaxPlayers < 2 {
		return cfg, fmt.Errorf("RUMMY_MAX_PLAYERS must be at least 2")
	}
	return cfg, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rummy", "session.json")
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts "10s" style durations or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
