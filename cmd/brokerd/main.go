package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/brokerage/internal/application"
	"github.com/example/brokerage/internal/config"
	httptransport "github.com/example/brokerage/internal/http"
	"github.com/example/brokerage/internal/notify"
	"github.com/example/brokerage/internal/persistence/sqlite"
	"github.com/example/brokerage/internal/persistence/sqlite/migration"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment wins either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if cfg.MigrationsEnabled {
		if err := migration.NewManager(pool.DB(), logger).Run(context.Background()); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	agentRepo := sqlite.NewAgentRepository(pool)
	appointmentRepo := sqlite.NewAppointmentRepository(pool)
	planRepo := sqlite.NewPlanRepository(pool)
	notificationRepo := sqlite.NewNotificationRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	var sender application.NotificationSender
	if cfg.NotifyGatewayURL != "" {
		sender = notify.NewGateway(cfg.NotifyGatewayURL, cfg.NotifyGatewayKey, logger)
	}

	notificationService := application.NewNotificationService(notificationRepo, sender, idGenerator, now, logger)
	appointmentService := application.NewAppointmentService(appointmentRepo, userRepo, notificationService, idGenerator, now, logger)
	agentService := application.NewAgentService(agentRepo, userRepo, now, logger)
	userService := application.NewUserService(userRepo, agentRepo, nil, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, sessionRepo, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	planService := application.NewPlanService(planRepo, idGenerator, now, logger)
	adminService := application.NewAdminService(userRepo, appointmentRepo, planRepo, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Agents:        httptransport.NewAgentHandler(agentService, logger),
		Appointments:  httptransport.NewAppointmentHandler(appointmentService, logger),
		Plans:         httptransport.NewPlanHandler(planService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Admin:         httptransport.NewAdminHandler(adminService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger, "POST /login", "POST /users"),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("brokerage API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
