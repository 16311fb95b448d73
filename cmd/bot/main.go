package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/advisor"
	"github.com/nyashahama/burnout-detector-backend/internal/config"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/logging"
	"github.com/nyashahama/burnout-detector-backend/internal/reminder"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
	"github.com/nyashahama/burnout-detector-backend/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireTelegram()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

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

	queries := db.New(pool)
	st := store.New(pool, queries, store.Config{
		RetestInterval: cfg.RetestInterval,
		TipInterval:    cfg.TipInterval,
	})

	adv := advisor.New(advisor.Options{
		LLMBaseURL:      cfg.LLMBaseURL,
		LLMAPIKey:       cfg.LLMAPIKey,
		LLMModel:        cfg.LLMModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	}, logger)

	// ── Telegram ──────────────────────────────────────────────────────────────
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	logger.Info("telegram: authorized", "username", botAPI.Self.UserName)

	bot := telegram.New(botAPI, st, queries, adv, telegram.Config{
		WebAppURL:   cfg.WebAppURL,
		BotUsername: botAPI.Self.UserName,
		StatsWindow: cfg.BotStatsWindow,
	}, logger)

	// ── Reminders ─────────────────────────────────────────────────────────────
	runner := reminder.NewRunner(queries, bot, reminder.RunnerConfig{
		Workers:        cfg.WorkerCount,
		PollInterval:   cfg.PollInterval,
		JobTimeout:     cfg.JobTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetestInterval: cfg.RetestInterval,
		TipInterval:    cfg.TipInterval,
	}, logger)

	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		runner.Start(ctx)
	}()

	// ── Long polling ──────────────────────────────────────────────────────────
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	// Run blocks until ctx is cancelled.
	bot.Run(ctx, updates)

	botAPI.StopReceivingUpdates()
	<-runnerDone
	logger.Info("shutdown complete")
	return nil
}
