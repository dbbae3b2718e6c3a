package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-actuarylist-scraper/internal/browser"
	"go-actuarylist-scraper/internal/config"
	"go-actuarylist-scraper/internal/database"
	"go-actuarylist-scraper/internal/htmldoc"
	"go-actuarylist-scraper/internal/logging"
	"go-actuarylist-scraper/internal/persist"
	"go-actuarylist-scraper/internal/pipeline"
	"go-actuarylist-scraper/internal/scraper"
	"go-actuarylist-scraper/internal/scraper/actuarylist"
	"go-actuarylist-scraper/internal/telegram"
	"go-actuarylist-scraper/internal/telemetry"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const runTimeout = 30 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	pages := flag.Int("pages", 0, "number of listing pages to scrape (overrides config)")
	headless := flag.String("headless", "", "run the browser headless: true|false (overrides config)")
	replay := flag.String("replay", "", "scrape saved *.html snapshots from this directory instead of the live site")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if *pages > 0 {
		cfg.TargetPages = *pages
	}
	if *headless != "" {
		b, err := strconv.ParseBool(*headless)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -headless %q: %v\n", *headless, err)
			return 2
		}
		cfg.Headless = b
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.RequireDatabase(); err != nil {
		logger.Error("cannot start", zap.Error(err))
		return 1
	}

	// One scrape per host at a time.
	lock := flock.New(cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire run lock", zap.String("path", cfg.LockPath), zap.Error(err))
		return 1
	}
	if !locked {
		logger.Error("another scrape is already running", zap.String("lock", cfg.LockPath))
		return 1
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "actuarylist-scraper", cfg.OTelCollectorURL, logger)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracer()
	}

	repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", zap.Error(err))
		return 1
	}
	defer repo.Close()
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("migrate database", zap.Error(err))
		return 1
	}

	deps := pipeline.Deps{
		Launch: launcher(cfg, *replay, logger),
		Scraper: actuarylist.New(actuarylist.Options{
			BaseURL:     cfg.BaseURL,
			TargetPages: cfg.TargetPages,
			Timing:      cfg.Timing,
			Logger:      logger,
		}),
		Sink:   persist.NewSink(repo.NewSession(), persist.DefaultBatchSize, logger),
		Logger: logger,
	}
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram disabled", zap.Error(err))
		} else {
			deps.Notifier = bot
		}
	}

	summary := pipeline.Run(ctx, deps)
	return summary.ExitCode()
}

func launcher(cfg *config.Config, replayDir string, logger *zap.Logger) pipeline.Launcher {
	if replayDir != "" {
		return func(context.Context) (scraper.Page, func(), error) {
			page, err := htmldoc.LoadDir(replayDir)
			if err != nil {
				return nil, nil, fmt.Errorf("load snapshots: %w", err)
			}
			logger.Info("replaying snapshots", zap.String("dir", replayDir))
			return page, func() {}, nil
		}
	}
	return func(ctx context.Context) (scraper.Page, func(), error) {
		page, release, err := browser.Launch(ctx, browser.Options{
			Headless:      cfg.Headless,
			CookiesPath:   cfg.CookiesPath,
			ScreenshotDir: cfg.ScreenshotDir,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return page, release, nil
	}
}
