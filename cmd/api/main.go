package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/linkbox/analyzer"
	"github.com/linkbox/analyzer/api"
	"github.com/linkbox/analyzer/db"
	"github.com/linkbox/analyzer/metrics"
	"github.com/linkbox/analyzer/storage"
	"github.com/linkbox/analyzer/tracing"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env when present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment from .env file")
	}

	logger.Info("linkbox analyzer service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("linkbox-api")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Default values
	defaultPort := getEnv("PORT", "8080")
	defaultProxyURL := getEnv("PROXY_URL", analyzer.DefaultProxyBaseURL)
	defaultGeminiKey := getEnv("GEMINI_API_KEY", "")
	defaultGeminiModel := getEnv("GEMINI_MODEL", "gemini-pro")
	defaultStoragePath := getEnv("STORAGE_BASE_PATH", "./storage")

	// Command-line flags (override environment variables)
	port := flag.String("port", defaultPort, "Server port")
	proxyURL := flag.String("proxy-url", defaultProxyURL, "CORS proxy base URL for content fetching")
	geminiKey := flag.String("gemini-api-key", defaultGeminiKey, "Gemini API key (empty disables AI analysis)")
	geminiModel := flag.String("gemini-model", defaultGeminiModel, "Gemini model to use for link analysis")
	disableCORS := flag.Bool("disable-cors", false, "Disable CORS")
	flag.Parse()

	// PostgreSQL database configuration (required)
	dbHost := getEnv("DB_HOST", "")
	if dbHost == "" {
		logger.Error("DB_HOST environment variable is required")
		os.Exit(1)
	}

	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "linkbox")
	dbPassword := getEnv("DB_PASSWORD", "linkbox_dev_pass")
	dbName := getEnv("DB_NAME", "linkbox")

	dbConfig := db.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort, dbUser, dbPassword, dbName),
	}
	logger.Info("using PostgreSQL database", "host", dbHost, "port", dbPort, "database", dbName)

	analyzerConfig := analyzer.Config{
		HTTPTimeout:  30 * time.Second,
		ProxyBaseURL: *proxyURL,
		GeminiAPIKey: *geminiKey,
		GeminiModel:  *geminiModel,
	}
	if *geminiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, links will be classified heuristically")
	}

	// Create server configuration
	config := api.Config{
		Addr:           ":" + *port,
		DBConfig:       dbConfig,
		AnalyzerConfig: analyzerConfig,
		StoragePath:    defaultStoragePath,
		CORSEnabled:    !*disableCORS,
	}

	// S3-compatible snapshot storage when configured
	if getEnv("STORAGE_BACKEND", "filesystem") == "s3" {
		s3Config := storage.S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnv("S3_USE_PATH_STYLE", "") == "true",
		}
		s3Store, err := storage.NewS3Storage(context.Background(), s3Config)
		if err != nil {
			logger.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		config.Store = s3Store
		logger.Info("using S3 snapshot storage", "bucket", s3Config.Bucket, "region", s3Config.Region)
	}

	// Create server
	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("api")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(server.DB().DB())
		}
	}()
	logger.Info("database metrics initialized")

	// Start server in a goroutine
	go func() {
		logger.Info("linkbox analyzer service starting",
			"port", *port,
			"database_host", dbHost,
			"database_name", dbName,
			"storage_path", defaultStoragePath,
			"proxy_url", *proxyURL,
			"gemini_model", *geminiModel,
			"ai_enabled", *geminiKey != "",
		)

		if err := server.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
