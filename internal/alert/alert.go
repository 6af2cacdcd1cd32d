package alert

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"crypto-tracker-bot/internal/metrics"
	"crypto-tracker-bot/internal/types"
	"crypto-tracker-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Store is the part of the alert store the evaluator needs
type Store interface {
	ListActive(ctx context.Context) ([]types.Alert, error)
	MarkFired(ctx context.Context, id int64) (bool, error)
}

type Quoter interface {
	Quote(ctx context.Context, symbol string) (types.PriceQuote, error)
}

type Notifier interface {
	Notify(ctx context.Context, n types.Notification) error
}

// CycleReport summarizes one evaluation pass
type CycleReport struct {
	Checked       int
	Fired         int
	FailedSymbols []string
}

type Evaluator struct {
	store    Store
	prices   Quoter
	notifier Notifier
	metrics  *metrics.BotMetrics
	timeout  time.Duration

	// processing ensures only one cycle runs at a time in this process
	processing sync.Mutex
}

// NewEvaluator wires the evaluator. timeout bounds each price lookup and each notification.
func NewEvaluator(store Store, prices Quoter, notifier Notifier, m *metrics.BotMetrics, timeout time.Duration) *Evaluator {
	if m == nil {
		m = metrics.Discard()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Evaluator{
		store:    store,
		prices:   prices,
		notifier: notifier,
		metrics:  m,
		timeout:  timeout,
	}
}

// ShouldFire reports whether quote satisfies an unfired alert on the same symbol
func ShouldFire(a types.Alert, quote types.PriceQuote) bool {
	return !a.Fired && a.Symbol == quote.Symbol && a.Direction.Crossed(quote.Price, a.TargetPrice)
}

// RunOnce fetches one quote per distinct symbol and fires every crossed alert.
// A failing symbol is skipped until the next cycle; only a store read failure is returned.
func (e *Evaluator) RunOnce(ctx context.Context) (CycleReport, error) {
	e.processing.Lock()
	defer e.processing.Unlock()

	log.Debug("🔄 Checking alerts...")
	e.metrics.AlertChecks.Inc()

	alerts, err := e.store.ListActive(ctx)
	if err != nil {
		return CycleReport{}, errors.Wrap(err, "failed to fetch active alerts")
	}

	report := CycleReport{Checked: len(alerts)}
	if len(alerts) == 0 {
		log.Debug("No active alerts to check.")
		return report, nil
	}

	bySymbol := lo.GroupBy(alerts, func(a types.Alert) string { return a.Symbol })
	symbols := lo.Uniq(lo.Map(alerts, func(a types.Alert, _ int) string { return a.Symbol }))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return report, nil
		}

		fired, err := e.checkSymbol(ctx, symbol, bySymbol[symbol])
		report.Fired += fired
		if err != nil {
			e.metrics.PriceFetchErrors.Inc()
			report.FailedSymbols = append(report.FailedSymbols, symbol)
			log.WithField("symbol", symbol).Warnf("⚠️ Skipping %d alert(s) this cycle: %v", len(bySymbol[symbol])-fired, err)
		}
	}

	log.Infof("✅ Alert check completed: %d checked, %d fired, %d symbol(s) failed.",
		report.Checked, report.Fired, len(report.FailedSymbols))
	return report, nil
}

// checkSymbol quotes one symbol and evaluates its alerts. A panic is
// recovered and reported as an error so the remaining symbols still run.
func (e *Evaluator) checkSymbol(ctx context.Context, symbol string, alerts []types.Alert) (fired int, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 4096)
			stackSize := runtime.Stack(stackBuf, false)
			log.Errorf("🔥 Panic recovered while checking %s: %v\nStack trace: %s", symbol, r, bytes.TrimRight(stackBuf[:stackSize], "\x00"))
			err = errors.Errorf("panic while checking %s: %v", symbol, r)
		}
	}()

	quote, err := e.quote(ctx, symbol)
	if err != nil {
		return 0, err
	}

	for _, a := range alerts {
		if e.evaluate(ctx, a, quote) {
			fired++
		}
	}
	return fired, nil
}

func (e *Evaluator) quote(ctx context.Context, symbol string) (types.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.prices.Quote(ctx, symbol)
}

// evaluate fires a single alert. It returns true when this call fired it.
func (e *Evaluator) evaluate(ctx context.Context, a types.Alert, quote types.PriceQuote) bool {
	entry := log.WithFields(log.Fields{"alert_id": a.ID, "symbol": a.Symbol})

	if !ShouldFire(a, quote) {
		entry.Debugf("🔍 Not triggered: %s %.8g, current %.8g", a.Direction, a.TargetPrice, quote.Price)
		return false
	}

	fired, err := e.store.MarkFired(ctx, a.ID)
	if err != nil {
		entry.Errorf("❌ Failed to mark alert fired: %v", err)
		return false
	}
	if !fired {
		entry.Debug("Alert already fired by another run")
		return false
	}
	e.metrics.AlertsFired.Inc()

	n := newNotification(a, quote)

	nctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.notifier.Notify(nctx, n); err != nil {
		e.metrics.NotifyErrors.Inc()
		entry.WithField("chat_id", n.ChatID).Errorf("❌ Failed to send price alert notification: %v", err)
	} else {
		entry.WithField("chat_id", n.ChatID).Info("✅ Price alert notification sent")
	}
	return true
}

func newNotification(a types.Alert, quote types.PriceQuote) types.Notification {
	name := a.Symbol
	if quote.Name != "" {
		name = fmt.Sprintf("%s (%s)", quote.Name, a.Symbol)
	}

	text := fmt.Sprintf(
		"🚨 *Price Alert Triggered*\n\n*%s* is now %s your target of *$%s*\nCurrent Price: *$%s*",
		helpers.EscapeMarkdownV2(name),
		a.Direction,
		helpers.FormatTargetUS(a.TargetPrice, true),
		helpers.FormatPriceUS(quote.Price, true),
	)

	return types.Notification{
		AlertID:       a.ID,
		OwnerID:       a.OwnerID,
		ChatID:        a.Recipient(),
		Symbol:        a.Symbol,
		Direction:     a.Direction,
		TargetPrice:   a.TargetPrice,
		ObservedPrice: quote.Price,
		Text:          text,
	}
}

// Start runs a cycle immediately and then every interval until ctx is done
func (e *Evaluator) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			e.safeRun(ctx)

			select {
			case <-ctx.Done():
				log.Info("Alert service stopped.")
				return
			case <-ticker.C:
			}
		}
	}()
	log.Infof("🚀 Alert service started, checking every %s.", interval)
}

func (e *Evaluator) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 4096)
			stackSize := runtime.Stack(stackBuf, false)
			log.Errorf("🔥 Panic recovered in alert checker: %v\nStack trace: %s", r, bytes.TrimRight(stackBuf[:stackSize], "\x00"))
		}
	}()

	if _, err := e.RunOnce(ctx); err != nil {
		log.Errorf("❌ Alert check failed: %v", err)
	}
}
