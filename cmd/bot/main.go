package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jessevdk/go-flags"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nuclight.org/moderation-tg-bot/app/admin"
	"nuclight.org/moderation-tg-bot/app/config"
	"nuclight.org/moderation-tg-bot/app/media"
	"nuclight.org/moderation-tg-bot/app/moderation"
	"nuclight.org/moderation-tg-bot/app/storage"
	"nuclight.org/moderation-tg-bot/app/telegram"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
)

var Revision = "dev"

func main() {
	cfg, level, err := loadConfig(os.Args[1:], logger.NewLogger(slog.LevelError))
	if err != nil {
		os.Exit(1)
	}

	log := logger.NewLogger(level)
	log.Info("starting bot", "revision", Revision)

	if cfg.SentryDSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:     cfg.SentryDSN,
			Release: Revision,
		})
		if err != nil {
			log.Error("initializing sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewSQLite(ctx, cfg.DBPath)
	if err != nil {
		log.Error("creating sqlite3 database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("closing sqlite3 database", "error", err)
		}
	}()

	pools := map[e.Category]string{
		e.CategoryAccept:  cfg.AcceptPoolDir,
		e.CategoryDecline: cfg.DeclinePoolDir,
	}
	for category, dir := range pools {
		if dir == "" {
			continue
		}
		res, err := media.LoadPool(ctx, db, dir, category)
		if err != nil {
			log.Error("loading response pool", "category", category, "dir", dir, "error", err)
			os.Exit(1)
		}
		log.Info("response pool loaded", "category", category, "added", res.Added, "skipped", res.Skipped)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.Error("creating bot api", "error", err)
		os.Exit(1)
	}

	gateway := &telegram.Gateway{Bot: api}

	library := &media.Library{
		Log:     log,
		Blobs:   db,
		Handles: media.NewHandles(db, cfg.HandleCacheSize, cfg.HandleCacheTTL),
		Sender:  gateway,
	}

	router := &admin.Router{
		Log:       log,
		Chats:     cfg.Chats(),
		Gateway:   gateway,
		Blobs:     db,
		Library:   library,
		Ledger:    db,
		Stats:     db,
		Bans:      db,
		Revision:  Revision,
		MsgPrefix: cfg.MsgPrefix,
	}

	dispatcher := &moderation.Dispatcher{
		Log:       log,
		Chats:     cfg.Chats(),
		Gateway:   gateway,
		Ledger:    db,
		Responses: library,
		Stats:     db,
		Bans:      db,
		Commands:  router,
	}

	janitor := &moderation.Janitor{
		Log:       log,
		Ledger:    db,
		Retention: cfg.LedgerRetention,
		Interval:  cfg.LedgerJanitorInterval,
	}
	go janitor.Run(ctx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	bot := &telegram.Client{
		Log:        log,
		Bot:        api,
		WorkersNum: cfg.TelegramWorkersNum,
		Handler:    dispatcher,
		Answerer:   gateway,
	}

	err = bot.Start(ctx)
	if err != nil {
		log.Error("starting bot", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("stopping bot")

	bot.Wait()
}

// loadConfig parses the configuration and the log level. go-flags prints its own
// parse errors, anything else is reported through log before the caller exits.
func loadConfig(args []string, log logger.Logger) (*config.Config, slog.Level, error) {
	cfg, err := config.Parse(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			log.Error("invalid configuration", "error", err)
		}
		return nil, 0, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Error("invalid log level", "error", err)
		return nil, 0, err
	}

	return cfg, level, nil
}
