package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// EODHD end-of-day price feed (API-key gated).
	EodhdAPIKey   string
	EodhdBaseURL  string
	PriceCacheTTL time.Duration

	// NSE bhavcopy archive fetcher.
	BhavcopyBaseURL string

	// Gemini suggestion flow.
	GeminiModel string

	ResultCacheTTL       time.Duration
	CacheCleanupInterval time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", err)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	eodhdAPIKey := getEnv("EODHD_API_KEY", "")
	if eodhdAPIKey == "" || eodhdAPIKey == "YOUR_API_KEY" {
		log.Println("WARNING: EODHD_API_KEY is not configured. Live price fetching will be unavailable.")
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./investview.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		EodhdAPIKey:   eodhdAPIKey,
		EodhdBaseURL:  getEnv("EODHD_BASE_URL", "https://eodhd.com/api"),
		PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", time.Hour),

		BhavcopyBaseURL: getEnv("BHAVCOPY_BASE_URL", "https://archives.nseindia.com/content/historical/EQUITIES"),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		ResultCacheTTL:       getEnvAsDuration("RESULT_CACHE_TTL", 15*time.Minute),
		CacheCleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
