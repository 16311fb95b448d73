package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/advisor"
	"github.com/nyashahama/burnout-detector-backend/internal/api"
	"github.com/nyashahama/burnout-detector-backend/internal/auth"
	"github.com/nyashahama/burnout-detector-backend/internal/config"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/email"
	"github.com/nyashahama/burnout-detector-backend/internal/logging"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
	"github.com/nyashahama/burnout-detector-backend/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	logger, closeLog := logging.New(logging.Options{Env: cfg.Env, File: cfg.LogFile})
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// Root context cancelled by OS signal. Everything below respects it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	admin, err := store.AdminAccount(cfg.AdminEmployeeID, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, pool, admin); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready", "admin_employee_id", cfg.AdminEmployeeID)

	queries := db.New(pool)

	// ── Store (atomic multi-step writes) ──────────────────────────────────────
	st := store.New(pool, queries, store.Config{
		RetestInterval: cfg.RetestInterval,
		TipInterval:    cfg.TipInterval,
	})

	// ── Advisor ───────────────────────────────────────────────────────────────
	adv := advisor.New(advisor.Options{
		LLMBaseURL:      cfg.LLMBaseURL,
		LLMAPIKey:       cfg.LLMAPIKey,
		LLMModel:        cfg.LLMModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	}, logger)

	// ── Email (Resend) ────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName, cfg.BaseURL)
	} else {
		mailer = email.NewNopSender()
		logger.Info("email: RESEND_API_KEY not set, HR alerts disabled")
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		st,
		auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		adv,
		mailer,
		api.Config{
			Env:            cfg.Env,
			AllowedOrigins: []string{cfg.WebAppURL},
			HRAlertEmail:   cfg.HRAlertEmail,
			RecentWindow:   cfg.RecentWindow,
		},
		logger,
	)

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM replies can be slow
		IdleTimeout:  120 * time.Second,
	}

	// ── gRPC health ───────────────────────────────────────────────────────────
	grpcSrv, health := transport.NewGRPCServer()
	go transport.WatchHealth(ctx, health, st, 15*time.Second, logger)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("server listening", "addr", lis.Addr().String())

	// Serve blocks until ctx is cancelled and both servers have stopped.
	if err := transport.Serve(ctx, lis, srv, grpcSrv, logger); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
