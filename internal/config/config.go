package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Sources  SourcesConfig
	Refresh  RefreshConfig
	Admin    AdminConfig
	Log      LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// SourcesConfig holds the upstream price source locations
type SourcesConfig struct {
	BoardURL     string // file path, glob or http(s) URL of the board document
	SpotURL      string
	YahooBaseURL string
	Timeout      time.Duration
	Location     *time.Location // zone of board observation keys and chart labels
	File         string         // optional YAML file with ticker groups and category priority
}

// RefreshConfig holds scheduler configuration
type RefreshConfig struct {
	Schedule string // cron spec
}

// AdminConfig holds configuration of the admin endpoints
type AdminConfig struct {
	IngestURL string
	BackupKey string // Fernet key; empty disables backup encryption
	APIKey    string // empty leaves the admin endpoints open
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level slog.Level
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("SOURCE_TIMEOUT", "20s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid SOURCE_TIMEOUT %q", os.Getenv("SOURCE_TIMEOUT"))
	}

	loc, err := time.LoadLocation(getEnv("SOURCE_TIMEZONE", "Asia/Seoul"))
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TIMEZONE: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/memory_prices.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost")),
		},
		Sources: SourcesConfig{
			BoardURL:     getEnv("BOARD_URL", "./data/ram_*.json"),
			SpotURL:      getEnv("SPOT_URL", "https://www.dramexchange.com/"),
			YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:      timeout,
			Location:     loc,
			File:         os.Getenv("SOURCES_FILE"),
		},
		Refresh: RefreshConfig{
			Schedule: getEnv("REFRESH_SCHEDULE", "@every 30m"),
		},
		Admin: AdminConfig{
			IngestURL: os.Getenv("INGEST_URL"),
			BackupKey: os.Getenv("BACKUP_KEY"),
			APIKey:    os.Getenv("ADMIN_API_KEY"),
		},
		Log: LogConfig{
			Level: level,
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
