package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/investview/backend/src/config"
	"github.com/username/investview/backend/src/database"
	"github.com/username/investview/backend/src/handlers"
	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/services"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Investview backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing result cache...")
	resultCache := cache.New(config.Cfg.ResultCacheTTL, config.Cfg.CacheCleanupInterval)

	var genaiClient *genai.Client
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		client, err := genai.NewClient(context.Background(), nil)
		if err != nil {
			logger.L.Error("Failed to create genai client, suggestions disabled", "error", err)
		} else {
			genaiClient = client
			logger.L.Info("Genai client initialized", "model", config.Cfg.GeminiModel)
		}
	} else {
		logger.L.Warn("GEMINI_API_KEY not set, suggestions endpoint will be unavailable")
	}

	logger.L.Info("Initializing services and handlers...")
	importService := services.NewImportService(resultCache)
	priceService := services.NewPriceService()
	suggestionService := services.NewSuggestionService(genaiClient)
	bhavcopyService, err := services.NewBhavcopyService()
	if err != nil {
		logger.L.Error("Failed to initialize bhavcopy service", "error", err)
		stdlog.Fatalf("Failed to initialize bhavcopy service: %v", err)
	}

	uploadHandler := handlers.NewUploadHandler(importService)
	portfolioHandler := handlers.NewPortfolioHandler(importService, priceService)
	txHandler := handlers.NewTransactionHandler(importService)
	suggestionHandler := handlers.NewSuggestionHandler(importService, suggestionService)
	marketDataHandler := handlers.NewMarketDataHandler(bhavcopyService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/portfolio", portfolioHandler.HandleGetPortfolio)
	apiRouter.HandleFunc("GET /api/holdings", portfolioHandler.HandleGetHoldings)
	apiRouter.HandleFunc("GET /api/transactions", txHandler.HandleGetTransactions)
	apiRouter.HandleFunc("DELETE /api/transactions/all", txHandler.HandleDeleteAllTransactions)
	apiRouter.HandleFunc("GET /api/suggestions", suggestionHandler.HandleGetSuggestions)
	apiRouter.HandleFunc("GET /api/bhavcopy", marketDataHandler.HandleGetBhavcopy)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "INVESTVIEW Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
