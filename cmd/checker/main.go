// Command checker runs a single alert evaluation cycle and exits.
// It is meant for cron style schedulers when the bot runs with CHECK_INTERVAL=0.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crypto-tracker-bot/config"
	"crypto-tracker-bot/internal/alert"
	"crypto-tracker-bot/internal/database"
	"crypto-tracker-bot/internal/metrics"
	"crypto-tracker-bot/internal/price"
	"crypto-tracker-bot/internal/telegram"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("checker", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])
	config.BindFlags(fs)

	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(); err != nil {
		log.Errorf("❌ Alert check failed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	botMetrics := metrics.NewBotMetrics(prometheus.NewRegistry())
	if err := botMetrics.LoadFrom(store); err != nil {
		return err
	}

	bot, err := telegram.NewBot(telegram.BotConfig{Token: cfg.TelegramToken, Debug: cfg.Debug})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prices := price.NewClient(price.Config{APIProKey: cfg.APIProKey, Timeout: cfg.RequestTimeout})
	evaluator := alert.NewEvaluator(store, prices, bot, botMetrics, cfg.RequestTimeout)

	report, err := evaluator.RunOnce(ctx)
	if saveErr := botMetrics.SaveTo(store); saveErr != nil {
		log.Errorf("Failed to save metrics: %v", saveErr)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"checked": report.Checked,
		"fired":   report.Fired,
		"failed":  len(report.FailedSymbols),
	}).Info("✅ Alert check finished.")
	return nil
}
