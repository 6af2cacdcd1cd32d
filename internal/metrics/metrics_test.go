package metrics

import (
	"path/filepath"
	"testing"

	"crypto-tracker-bot/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore map[string]float64

func (m memoryStore) AddMetric(name string, delta float64) error {
	m[name] += delta
	return nil
}

func (m memoryStore) GetMetric(name string) (float64, error) {
	return m[name], nil
}

func TestSaveAndLoad(t *testing.T) {
	store := memoryStore{}

	first := NewBotMetrics(prometheus.NewRegistry())
	first.AlertsFired.Add(2)
	first.CommandsProcessed.Inc()
	require.NoError(t, first.SaveTo(store))

	assert.Equal(t, 2.0, store["alerts_fired"])
	assert.Equal(t, 1.0, store["commands_processed"])
	assert.Equal(t, 0.0, store["notify_errors"])

	second := NewBotMetrics(prometheus.NewRegistry())
	require.NoError(t, second.LoadFrom(store))
	second.AlertsFired.Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(second.AlertsFired))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.CommandsProcessed))
}

func TestSaveOnlyAddsIncrements(t *testing.T) {
	store := memoryStore{"alerts_fired": 10}

	m := NewBotMetrics(prometheus.NewRegistry())
	require.NoError(t, m.LoadFrom(store))
	m.AlertsFired.Inc()
	require.NoError(t, m.SaveTo(store))
	require.NoError(t, m.SaveTo(store))

	assert.Equal(t, 11.0, store["alerts_fired"])
}

func TestProcessesSharingOneDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	botStore, err := database.Open(path)
	require.NoError(t, err)
	defer botStore.Close()

	bot := NewBotMetrics(prometheus.NewRegistry())
	require.NoError(t, bot.LoadFrom(botStore))
	bot.CommandsProcessed.Add(3)

	// cron runs of the checker while the bot is up
	for i := 0; i < 5; i++ {
		checkerStore, err := database.Open(path)
		require.NoError(t, err)

		checker := NewBotMetrics(prometheus.NewRegistry())
		require.NoError(t, checker.LoadFrom(checkerStore))
		checker.AlertChecks.Inc()
		require.NoError(t, checker.SaveTo(checkerStore))
		require.NoError(t, checkerStore.Close())
	}

	checks, err := botStore.GetMetric("alert_checks")
	require.NoError(t, err)
	assert.Equal(t, 5.0, checks)

	bot.AlertChecks.Inc()
	require.NoError(t, bot.SaveTo(botStore))

	checks, err = botStore.GetMetric("alert_checks")
	require.NoError(t, err)
	assert.Equal(t, 6.0, checks)

	commands, err := botStore.GetMetric("commands_processed")
	require.NoError(t, err)
	assert.Equal(t, 3.0, commands)
}

func TestRegistersOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)
	m.AlertChecks.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "crypto_tracker_bot_alert_checks")
	assert.Contains(t, names, "crypto_tracker_bot_alerts_fired")
	assert.Equal(t, 1.0, GetMetricValue(m.AlertChecks))
}
