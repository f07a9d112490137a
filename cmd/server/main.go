package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pesio-ai/be-cr-requests/internal/client"
	"github.com/pesio-ai/be-cr-requests/internal/config"
	"github.com/pesio-ai/be-cr-requests/internal/database"
	"github.com/pesio-ai/be-cr-requests/internal/handler"
	"github.com/pesio-ai/be-cr-requests/internal/logger"
	"github.com/pesio-ai/be-cr-requests/internal/metrics"
	"github.com/pesio-ai/be-cr-requests/internal/natsclient"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
	"github.com/pesio-ai/be-cr-requests/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Credit Request Routing Service")

	limitPolicy, err := service.ParseLimitPolicy(cfg.Routing.LimitPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid routing configuration")
	}

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize NATS; notifications degrade to store-only without it
	var nats *natsclient.Client
	if cfg.NATS.URL != "" {
		nats, err = natsclient.Connect(cfg.NATS.URL, cfg.Service.Name)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, notification events disabled")
		} else {
			defer nats.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}

	// Initialize repositories
	processRepo := repository.NewPostgresProcessRepository(db)
	sectorRepo := repository.NewPostgresSectorRepository(db)
	requestRepo := repository.NewPostgresRequestRepository(db)
	historyRepo := repository.NewPostgresHistoryRepository(db)
	notificationRepo := repository.NewPostgresNotificationRepository(db)

	// Initialize services
	collector := metrics.NewCollector()
	clock := service.SystemClock()

	var publisher *client.NotificationPublisher
	if nats != nil {
		publisher = client.NewNotificationPublisher(nats, log.Logger)
	}
	notifier := client.NewStoreAndPublishNotifier(notificationRepo, publisher, collector, clock, log)

	requestService := service.NewRequestService(requestRepo, historyRepo, processRepo, notifier, collector, clock, log)
	routingService := service.NewRoutingService(processRepo, requestRepo, collector, clock, log, service.RoutingConfig{
		Timeout:     time.Duration(cfg.Routing.TimeoutDays) * 24 * time.Hour,
		LimitPolicy: limitPolicy,
	})
	statusService := service.NewStatusService(requestRepo, processRepo, notifier, collector, clock, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	slaMonitor := service.NewSLAMonitor(requestRepo, sectorRepo, statusService, notifier, collector, clock, log, service.SLAConfig{
		OverdueAfter:  time.Duration(cfg.Routing.OverdueDays) * 24 * time.Hour,
		WarningWindow: time.Duration(cfg.Routing.WarningDays) * 24 * time.Hour,
	})

	log.Info().
		Str("limit_policy", string(limitPolicy)).
		Int("timeout_days", cfg.Routing.TimeoutDays).
		Int("overdue_days", cfg.Routing.OverdueDays).
		Msg("Routing engine configured")

	// Start the SLA monitor
	go slaMonitor.Start(ctx, cfg.Routing.ScanInterval)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(requestService, routingService, statusService, notificationService, log)
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.Handle("/metrics", collector.Handler())

	// Credit request routes
	mux.HandleFunc("/api/v1/requests", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.GetRequest(w, r)
		case http.MethodPost:
			httpHandler.CreateRequest(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/requests/route", httpHandler.RouteRequest)
	mux.HandleFunc("/api/v1/requests/status", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.GetStatus(w, r)
		case http.MethodPatch:
			httpHandler.SetStatus(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/requests/history", httpHandler.GetHistory)
	mux.HandleFunc("/api/v1/requests/estimated-time", httpHandler.GetEstimatedTime)
	mux.HandleFunc("/api/v1/graph", httpHandler.GetProcessGraph)
	mux.HandleFunc("/api/v1/notifications", httpHandler.GetNotifications)
	mux.HandleFunc("/api/v1/notifications/read", httpHandler.MarkNotificationRead)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
