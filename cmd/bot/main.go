package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-tracker-bot/config"
	"crypto-tracker-bot/internal/alert"
	"crypto-tracker-bot/internal/commands"
	"crypto-tracker-bot/internal/database"
	"crypto-tracker-bot/internal/metrics"
	"crypto-tracker-bot/internal/news"
	"crypto-tracker-bot/internal/price"
	"crypto-tracker-bot/internal/server"
	"crypto-tracker-bot/internal/telegram"
	"crypto-tracker-bot/lib/translation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const metricsSaveInterval = 5 * time.Minute

func main() {
	fs := pflag.NewFlagSet("bot", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])
	config.BindFlags(fs)

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	translation.Configure("locales", cfg.Lang)
	log.Debugf("Replies in language %s.", translation.GetLanguage())

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	botMetrics := metrics.NewBotMetrics(registry)
	if err := botMetrics.LoadFrom(store); err != nil {
		log.Errorf("Failed to load metrics: %v", err)
	}

	prices := price.NewClient(price.Config{APIProKey: cfg.APIProKey, Timeout: cfg.RequestTimeout})
	headlines := news.NewClient(news.Config{URL: cfg.NewsAPIURL, APIKey: cfg.NewsAPIKey, Timeout: cfg.RequestTimeout})

	cache, err := commands.NewCache(cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          cfg.TelegramToken,
		Debug:          cfg.Debug,
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	if err := bot.SetCommands(); err != nil {
		log.Warnf("Failed to publish bot commands: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := telegram.NewUpdateSource(bot, cfg.WebhookURL)
	updates, err := source.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}
	log.Infof("Running in %s mode.", cfg.Mode())

	router := commands.NewRouter(store, cache.Quoter(prices), cache.News(headlines), botMetrics)
	dispatcher := telegram.NewDispatcher(bot, router, botMetrics)
	go dispatcher.Run(ctx, updates)

	// the evaluator reads live prices, never the command cache
	if cfg.CheckInterval > 0 {
		evaluator := alert.NewEvaluator(store, prices, bot, botMetrics, cfg.RequestTimeout)
		evaluator.Start(ctx, cfg.CheckInterval)
	} else {
		log.Info("CHECK_INTERVAL is 0, alerts are evaluated by the external checker only.")
	}

	go func() {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveMetrics(botMetrics, store)
			}
		}
	}()

	srv := server.New(cfg.Port, registry, source.Register)
	srvErr := server.Run(ctx, srv)

	saveMetrics(botMetrics, store)
	if srvErr != nil {
		store.Close()
		log.Fatalf("Failed to run metrics and health server: %v", srvErr)
	}
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func saveMetrics(m *metrics.BotMetrics, store *database.Store) {
	if err := m.SaveTo(store); err != nil {
		log.Errorf("Failed to save metrics: %v", err)
	}
}
