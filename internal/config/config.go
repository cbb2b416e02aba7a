package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting of the service. Upload limits are
// explicit per-operation configuration; nothing tunes process-wide state at
// request time.
type Config struct {
	Addr          string
	DBPath        string
	StorageRoot   string
	SessionKey    []byte
	IDKey         []byte
	SessionCookie string
	LogLevel      slog.Level
	MaxBatch      int
	MaxFileBytes  int64
	UploadTimeout time.Duration
}

// Load reads configuration from the environment, consulting a .env file when
// present. GALERI_SESSION_KEY and GALERI_ID_KEY must be set; the id key must
// be 16, 24 or 32 bytes long.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getString("GALERI_ADDR", ":8080"),
		DBPath:        getString("GALERI_DB_PATH", "data/galeri.db"),
		StorageRoot:   getString("GALERI_STORAGE_ROOT", "data/storage"),
		SessionKey:    []byte(strings.TrimSpace(os.Getenv("GALERI_SESSION_KEY"))),
		IDKey:         []byte(strings.TrimSpace(os.Getenv("GALERI_ID_KEY"))),
		SessionCookie: getString("GALERI_SESSION_COOKIE", "galeri_session"),
		LogLevel:      getLogLevel("GALERI_LOG_LEVEL", slog.LevelInfo),
		MaxBatch:      getInt("GALERI_MAX_BATCH", 20),
		MaxFileBytes:  int64(getInt("GALERI_MAX_FILE_KB", 5048)) * 1024,
		UploadTimeout: getDuration("GALERI_UPLOAD_TIMEOUT", 2*time.Minute),
	}

	if len(cfg.SessionKey) == 0 {
		return nil, fmt.Errorf("GALERI_SESSION_KEY must be set")
	}

	switch len(cfg.IDKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("GALERI_ID_KEY must be 16, 24 or 32 bytes long")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getLogLevel(key string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "":
		return fallback
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
