package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"drspark-watcher/config"
	"drspark-watcher/notify"
	"drspark-watcher/pipeline"
	"drspark-watcher/scraper/drspark"
	"drspark-watcher/storage"
	"drspark-watcher/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogDebug)

	logger.Info("=== DrSpark watcher starting ===")
	logger.Info("Config — list: %s | interval: %v ±%v | store: %s | fetch: %s",
		cfg.ListURL, cfg.PollInterval, cfg.Jitter, cfg.SeenDBDriver, cfg.FetchMode)

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open seen store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	parser, err := drspark.NewParser(cfg.BaseURL, logger)
	if err != nil {
		logger.Error("Failed to build parser: %v", err)
		os.Exit(1)
	}

	var fetcher pipeline.Fetcher
	if cfg.FetchMode == "browser" {
		fetcher = drspark.NewBrowserClient(cfg, logger)
	} else {
		fetcher = drspark.NewClient(cfg, logger)
	}

	notifier := notify.NewNotifier(cfg, logger)
	if cfg.DiscordWebhookURL == "" {
		logger.Warn("DISCORD_WEBHOOK_URL is not set — new items will be recorded but not announced")
	}

	runner := pipeline.NewRunner(cfg, logger, fetcher, parser, store, notifier)
	scheduler := pipeline.NewScheduler(cfg.PollInterval, cfg.Jitter, cfg.MisfireGrace,
		logger, runner.RunCycle)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Watcher started: every %v", cfg.PollInterval)
	scheduler.Run(ctx)
	logger.Info("Watcher stopped")
}

func openStore(cfg *config.Config) (storage.SeenStore, error) {
	if cfg.SeenDBDriver == "postgres" {
		return storage.NewPostgresStore(cfg.DSN())
	}
	return storage.NewSQLiteStore(cfg.SeenDBPath)
}
