// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/config"
	"github.com/virallens/support-chat/internal/handler"
	"github.com/virallens/support-chat/internal/llm"
	"github.com/virallens/support-chat/internal/middleware"
	"github.com/virallens/support-chat/internal/service"
	"github.com/virallens/support-chat/internal/store"
	"github.com/virallens/support-chat/pkg/logger"
	"github.com/virallens/support-chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "support-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to MongoDB
	mongoStore, err := store.Connect(ctx, store.MongoConfig{
		URL:         cfg.MongoURL,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: cfg.MongoMaxPoolSize,
	})
	if err != nil {
		log.Error("failed to connect to MongoDB", zap.Error(err))
		os.Exit(1)
	}
	defer mongoStore.Close(ctx)

	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Error("failed to ensure indexes", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.OpenAIAPIKey
	if provider == llm.ProviderAnthropic {
		apiKey = cfg.AnthropicAPIKey
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	gateway := llm.NewGateway(llmClient, cfg.LLMModel, cfg.LLMMaxTokens, log)

	// Initialize services
	chatSvc := service.NewChatService(mongoStore, gateway, log)
	conversationSvc := service.NewConversationService(mongoStore, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(mongoStore)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)

	// Token verification: remote profile lookup when configured,
	// local JWT validation otherwise.
	var verifier middleware.TokenVerifier
	if cfg.AuthVerifyURL != "" {
		verifier = middleware.NewProfileVerifier(cfg.AuthVerifyURL)
	} else {
		verifier = middleware.NewJWTVerifier(cfg.JWTSecret)
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(verifier))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", chatHandler.Send)
			r.Post("/regenerate", chatHandler.Regenerate)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Save)
			r.Post("/update-title", conversationHandler.UpdateTitle)
			r.Delete("/bulk", conversationHandler.BulkDelete)
			r.Get("/single/{conversationID}", conversationHandler.Get)
			r.Get("/export/{userID}", conversationHandler.Export)
			r.Get("/{userID}", conversationHandler.List)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
