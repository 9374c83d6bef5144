package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Mode          string // tui or serve
	Env           string
	LogLevel      string
	LogFile       string // TUI mode logs here so output does not tear the screen
	Port          string
	AllowedOrigin string

	// Backend
	APIBaseURL   string
	SocketURL    string // Defaults to APIBaseURL
	HTTPTimeout  time.Duration
	APIRateLimit float64 // requests per second towards the backend
	APIRateBurst int

	// Push channel
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	// Highlight window for rows changed by push events
	RecentWindow time.Duration

	// Export
	ExportDriver        string // local or r2
	ExportDir           string
	ExportURLPrefix     string
	R2AccountID         string
	R2AccessKeyID       string
	R2AccessKeySecret   string
	R2BucketName        string
	R2PublicURL         string
	ExportUploadTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		}
	} else {
		// 2. Default fallback: .env is optional, system env vars win otherwise
		_ = godotenv.Load()
	}

	apiBase := strings.TrimSuffix(getEnv("API_BASE_URL", ""), "/")

	cfg := &Config{
		Mode:          getEnv("MODE", "tui"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", "dashboard.log"),
		Port:          getEnv("PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		APIBaseURL:   apiBase,
		SocketURL:    strings.TrimSuffix(getEnv("SOCKET_URL", apiBase), "/"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		APIRateLimit: getFloatEnv("API_RATE_LIMIT", 10),
		APIRateBurst: getIntEnv("API_RATE_BURST", 5),

		// Push channel defaults: 10 attempts, 1s apart
		ReconnectAttempts: getIntEnv("RECONNECT_ATTEMPTS", 10),
		ReconnectDelay:    getDurationEnv("RECONNECT_DELAY", time.Second),

		RecentWindow: getDurationEnv("RECENT_WINDOW", 5*time.Second),

		ExportDriver:        getEnv("EXPORT_DRIVER", "local"),
		ExportDir:           getEnv("EXPORT_DIR", "./exports"),
		ExportURLPrefix:     getEnv("EXPORT_URL_PREFIX", "file://exports"),
		R2AccountID:         getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:       getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret:   getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:        getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:         getEnv("R2_PUBLIC_URL", ""),
		ExportUploadTimeout: getDurationEnv("EXPORT_UPLOAD_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL environment variable is required")
	}
	if c.Mode != "tui" && c.Mode != "serve" {
		return errors.New("MODE must be tui or serve")
	}
	if c.ReconnectAttempts < 0 {
		return errors.New("RECONNECT_ATTEMPTS must be non-negative")
	}
	if c.APIRateLimit <= 0 || c.APIRateBurst < 1 {
		return errors.New("API_RATE_LIMIT must be positive and API_RATE_BURST at least 1")
	}
	switch c.ExportDriver {
	case "local":
	case "r2":
		if c.R2AccountID == "" || c.R2BucketName == "" || c.R2PublicURL == "" {
			return errors.New("R2 export requires R2_ACCOUNT_ID, R2_BUCKET_NAME and R2_PUBLIC_URL")
		}
	default:
		return errors.New("EXPORT_DRIVER must be local or r2")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
