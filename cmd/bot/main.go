package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"youtube_bot/internal/bot"
	"youtube_bot/internal/config"
	"youtube_bot/internal/consumer"
	"youtube_bot/internal/filter"
	"youtube_bot/internal/hub"
	"youtube_bot/internal/ingest"
	"youtube_bot/internal/queue"
	"youtube_bot/internal/storage"
	"youtube_bot/internal/subscription"
	"youtube_bot/internal/webhook"
	"youtube_bot/internal/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	videos, err := youtube.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Error("create youtube client", "error", err)
		os.Exit(1)
	}

	q := queue.New()
	engine := filter.NewEngine(cfg.DebugChannelID, cfg.VideoAgeLimit)
	pipeline := ingest.New(store, q, engine, cfg.DebugChannelID, log)

	hubClient := hub.New(cfg.HubURL, cfg.CallbackURL)
	manager := subscription.New(store, hubClient, videos, pipeline, cfg.MissingWindow, log)

	b, err := bot.New(cfg.TelegramBotToken, store, manager, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	server := webhook.New(cfg.ListenAddr, pipeline, videos, log)
	go func() {
		if err := server.Serve(ctx); err != nil {
			log.Error("webhook server", "error", err)
			cancel()
		}
	}()

	go consumer.New(q, b, log).Run(ctx)

	// Refresh every hub lease daily at midnight.
	c := cron.New()
	if _, err := c.AddFunc("0 0 * * *", func() {
		if err := manager.ResubscribeAll(ctx); err != nil {
			log.Error("daily resubscription sweep", "error", err)
		}
	}); err != nil {
		log.Error("schedule resubscription sweep", "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	log.Info("starting bot")

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
