package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/auth-service/internal/auth"
	"github.com/Dan9191/auth-service/internal/config"
	"github.com/Dan9191/auth-service/internal/handler"
	"github.com/Dan9191/auth-service/internal/health"
	"github.com/Dan9191/auth-service/internal/middleware"
	"github.com/Dan9191/auth-service/internal/repository"
	"github.com/Dan9191/auth-service/internal/service"
	"github.com/Dan9191/auth-service/internal/utils/email"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	repo, err := repository.Open(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer repo.Close(context.Background())

	// Initialize layers
	svc := service.NewService(
		repo,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		logger,
	)
	if cfg.MailEnabled() {
		svc.SetNotifier(email.NewSender(cfg, logger))
	}
	h := handler.NewHandler(svc, logger)

	monitor := health.NewMonitor(repo, logger)
	if err := monitor.Start(cfg.HealthSchedule); err != nil {
		logger.Fatalf("Failed to start health monitor: %v", err)
	}
	defer monitor.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Handle("/health", monitor).Methods(http.MethodGet)
	h.Mount(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s (store: %s)", addr, cfg.StoreDriver)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if err := svc.Drain(shutdownCtx); err != nil {
		logger.Warnf("Pending welcome emails not sent: %v", err)
	}
	logger.Info("Server stopped")
}
