package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Media storage Configuration
	Media MediaConfig

	// Search Configuration
	Search SearchConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// MediaConfig holds uploaded-image storage configuration
type MediaConfig struct {
	Dir string // Directory where uploaded images are stored
}

// SearchConfig holds search/indexing configuration
type SearchConfig struct {
	DefaultTopK     int    // Result count when the client does not send top_k
	ReindexSchedule string // Cron expression for periodic full reindex, empty = disabled
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "pixido.sqlite"
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}

	mediaDir := os.Getenv("MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = "media"
	}

	topK := 20
	if v := os.Getenv("SEARCH_DEFAULT_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topK = n
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		HTTP: HTTPConfig{
			Port:        port,
			CORSOrigins: []string{corsOrigin},
		},
		Media: MediaConfig{
			Dir: mediaDir,
		},
		Search: SearchConfig{
			DefaultTopK:     topK,
			ReindexSchedule: os.Getenv("REINDEX_SCHEDULE"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
