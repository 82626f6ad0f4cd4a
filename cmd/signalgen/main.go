package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"signalgen/config"
	"signalgen/internal/client"
	"signalgen/internal/logger"
	"signalgen/internal/metrics"
	"signalgen/internal/notification"
	"signalgen/internal/runner"
	redisstore "signalgen/internal/store/redis"
	sqlitestore "signalgen/internal/store/sqlite"
	"signalgen/internal/strategy"
)

func main() {
	os.Exit(run())
}

// run is split from main so deferred cleanups fire before the exit code
// is returned to the OS.
func run() int {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init("signalgen", logger.ParseLevel(cfg.LogLevel))

	continuous, interval := parseArgs(os.Args[1:], time.Duration(cfg.RunIntervalSec)*time.Second, log)

	api := client.New(client.Config{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
	}, log)

	opts := []runner.Option{}

	var prom *metrics.Metrics
	var health *metrics.HealthStatus
	if cfg.MetricsAddr != "" {
		prom = metrics.NewMetrics()
		health = metrics.NewHealthStatus()
		opts = append(opts, runner.WithMetrics(prom, health))
	}

	if cfg.JournalPath != "" {
		journal, err := sqlitestore.NewJournal(cfg.JournalPath)
		if err != nil {
			log.Error("journal init failed", slog.Any("err", err))
			return 1
		}
		defer journal.Close()
		log.Info("submission journal enabled", slog.String("path", cfg.JournalPath))
		opts = append(opts, runner.WithJournal(journal))
	}

	if cfg.RedisAddr != "" {
		status, err := redisstore.NewStatusWriter(redisstore.StatusWriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			// Status publishing is best-effort; run without it
			log.Warn("redis status writer init failed, continuing without it", slog.Any("err", err))
		} else {
			defer status.Close()
			opts = append(opts, runner.WithStatusWriter(status))
		}
	}

	opts = append(opts, runner.WithNotifier(buildNotifier(cfg, log)))

	r := runner.New(runner.Config{
		Symbol:        cfg.Symbol,
		Timeframe:     cfg.Timeframe,
		IndicatorID:   cfg.IndicatorID,
		IndicatorName: cfg.IndicatorName,
		BarLimit:      cfg.BarLimit,
	}, api, strategy.NewInsideBar(), log, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	var srv *metrics.Server
	if cfg.MetricsAddr != "" {
		srv = metrics.NewServer(cfg.MetricsAddr, health, log)
		srv.Start()
	}

	exitCode := 0
	if continuous {
		r.RunContinuous(ctx, interval)
	} else {
		if err := r.RunOnce(ctx); err != nil {
			if runner.IsHTTPStatus(err, http.StatusUnauthorized) {
				log.Error("API rejected the key, check API_KEY")
			}
			exitCode = 1
		}
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
		srv.Stop(shutdownCtx)
		shutdownCancel()
	}
	return exitCode
}

// parseArgs handles the CLI surface: no arguments runs a single cycle,
// "--continuous [seconds]" loops forever with the given interval.
func parseArgs(args []string, fallback time.Duration, log *slog.Logger) (continuous bool, interval time.Duration) {
	interval = fallback
	if len(args) == 0 || args[0] != "--continuous" {
		return false, interval
	}
	if len(args) > 1 {
		secs, err := strconv.Atoi(args[1])
		if err != nil || secs <= 0 {
			log.Warn("ignoring invalid interval argument", slog.String("arg", args[1]))
		} else {
			interval = time.Duration(secs) * time.Second
		}
	}
	return true, interval
}

// buildNotifier assembles the configured alert channels, always keeping
// the log backend so failures are visible even without external alerting.
func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	multi := notification.Multi{notification.NewLogNotifier(log)}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		multi = append(multi, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.AlertWebhookURL != "" {
		multi = append(multi, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}
	return multi
}
