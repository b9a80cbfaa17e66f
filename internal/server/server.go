// Package server
//
// @title Pixido API
// @version 1.0
// @description Content-based image retrieval service API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixido-dev/pixido/internal/auth"
	"github.com/pixido-dev/pixido/internal/config"
	"github.com/pixido-dev/pixido/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication from the environment. The secret must be
	// shared with any other instance verifying the same tokens.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	auth.InitializeJWT(jwtSecret)

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		// Allow alphanumeric, hyphens, underscores, and dots only
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' ||
				char == '_' ||
				char == '.') {
				return false
			}
		}
		return len(value) > 0
	})

	// Initialize Asynq client for enqueueing indexing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Ensure the media directory exists before the first upload
	if err := os.MkdirAll(cfg.Media.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	// Create server
	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		version:     version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
		cacheSize       = 10000
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly (connection string pragmas may not work with all drivers)
	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Uploaded images served as static files
	s.router.Static("/media", s.config.Media.Dir)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/login", s.login)
	s.router.POST("/api/token", s.token)
	s.router.POST("/api/token/refresh", s.refreshToken)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/user", s.getCurrentUser)

		// Images
		api.POST("/images/upload", s.uploadImage)
		api.GET("/images/list", s.listImages)
		api.DELETE("/images/:id", s.deleteImage)

		// Similarity search
		api.POST("/search", s.search)

		// Admin-only endpoints
		admin := api.Group("")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/stats", s.getStats)
			admin.POST("/auth/promote/:id", s.promoteUser)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "pixido-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router returns the configured gin engine, mainly for handler tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:    port,
		Handler: s.router,
		// Generous body timeouts for large image uploads
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")

	return nil
}
