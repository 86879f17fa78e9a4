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

	"github.com/sritampatnaik/sritam-chatbot/internal/agent"
	"github.com/sritampatnaik/sritam-chatbot/internal/config"
	"github.com/sritampatnaik/sritam-chatbot/internal/gcal"
	"github.com/sritampatnaik/sritam-chatbot/internal/handler"
	"github.com/sritampatnaik/sritam-chatbot/internal/llm"
	"github.com/sritampatnaik/sritam-chatbot/internal/middleware"
	"github.com/sritampatnaik/sritam-chatbot/internal/scheduling"
	"github.com/sritampatnaik/sritam-chatbot/internal/store"
	"github.com/sritampatnaik/sritam-chatbot/pkg/logger"
	"github.com/sritampatnaik/sritam-chatbot/pkg/tracing"
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
		tp, err := tracing.InitTracer(ctx, "sritam-chatbot", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Calendar integration
	tokenManager := gcal.NewTokenManager(gcal.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, st, log)
	calendarClient := gcal.NewClient(tokenManager, cfg.AdminEmail, cfg.CalendarID, cfg.Timezone, log)

	// Scheduling
	hours := scheduling.Hours{
		StartHour:   cfg.WorkdayStartHour,
		EndHour:     cfg.WorkdayEndHour,
		SlotMinutes: cfg.SlotMinutes,
		Location:    cfg.Location(),
	}
	engine := scheduling.NewEngine(calendarClient, hours, log)
	bookingSvc := scheduling.NewService(engine, calendarClient, st, log)

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Conversation orchestrator
	toolset := agent.NewToolset(engine, bookingSvc, log)
	orchestrator := agent.NewOrchestrator(
		llmClient, toolset, st,
		cfg.LLMModel, cfg.Timezone, cfg.Location(),
		cfg.WorkdayStartHour, cfg.WorkdayEndHour, cfg.SlotMinutes,
		log,
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st)
	guestHandler := handler.NewGuestHandler(st, cfg.JWTSecret, cfg.JWTExpiration, log)
	chatHandler := handler.NewChatHandler(orchestrator, st, log)
	historyHandler := handler.NewHistoryHandler(st, log)
	meetingHandler := handler.NewMeetingHandler(bookingSvc, log)
	adminHandler := handler.NewAdminHandler(tokenManager, st, cfg.AdminEmail, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Admin calendar connect flow
	r.Route("/admin/auth/google", func(r chi.Router) {
		r.Get("/", adminHandler.Connect)
		r.Get("/callback", adminHandler.Callback)
	})

	// Guest session endpoint (no auth required)
	r.Post("/api/v1/guest", guestHandler.Create)

	// API routes with guest authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.GuestAuth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Delete("/chat/{id}", chatHandler.Delete)
		r.Get("/history", historyHandler.List)

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", meetingHandler.List)
			r.Get("/{id}", meetingHandler.Get)
			r.Post("/{id}/cancel", meetingHandler.Cancel)
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
