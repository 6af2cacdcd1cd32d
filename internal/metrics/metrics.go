package metrics

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

// Store persists counter values between runs. Several processes may add
// to the same counters, so values are saved as increments.
type Store interface {
	AddMetric(name string, delta float64) error
	GetMetric(name string) (float64, error)
}

type BotMetrics struct {
	CommandsProcessed prometheus.Counter
	MessagesHandled   prometheus.Counter
	AlertsCreated     prometheus.Counter
	AlertsFired       prometheus.Counter
	AlertChecks       prometheus.Counter
	PriceFetchErrors  prometheus.Counter
	NotifyErrors      prometheus.Counter
	Mutex             sync.Mutex

	// counter value at the last load or save, by metric name
	persisted map[string]float64
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crypto_tracker",
		Subsystem: "bot",
		Name:      name,
		Help:      help,
	})
}

// NewBotMetrics creates the counters and registers them on reg
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: newCounter("commands_processed", "The total number of processed commands"),
		MessagesHandled:   newCounter("messages_handled", "The total number of handled messages"),
		AlertsCreated:     newCounter("alerts_created", "The total number of alerts created by users"),
		AlertsFired:       newCounter("alerts_fired", "The total number of alerts that crossed their target"),
		AlertChecks:       newCounter("alert_checks", "The total number of alert evaluation cycles"),
		PriceFetchErrors:  newCounter("price_fetch_errors", "The total number of failed price lookups"),
		NotifyErrors:      newCounter("notify_errors", "The total number of notifications that could not be sent"),
		persisted:         make(map[string]float64),
	}

	for _, c := range m.counters() {
		reg.MustRegister(c.counter)
	}
	return m
}

type namedCounter struct {
	name    string
	counter prometheus.Counter
}

func (m *BotMetrics) counters() []namedCounter {
	return []namedCounter{
		{"commands_processed", m.CommandsProcessed},
		{"messages_handled", m.MessagesHandled},
		{"alerts_created", m.AlertsCreated},
		{"alerts_fired", m.AlertsFired},
		{"alert_checks", m.AlertChecks},
		{"price_fetch_errors", m.PriceFetchErrors},
		{"notify_errors", m.NotifyErrors},
	}
}

// Discard returns counters registered nowhere, for callers that do not export metrics
func Discard() *BotMetrics {
	return NewBotMetrics(prometheus.NewRegistry())
}

// LoadFrom restores the counters saved by a previous run
func (m *BotMetrics) LoadFrom(store Store) error {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	for _, c := range m.counters() {
		value, err := store.GetMetric(c.name)
		if err != nil {
			return errors.Wrapf(err, "load metric %s", c.name)
		}
		c.counter.Add(value)
		m.persisted[c.name] += value
	}

	log.Debug("Metrics loaded from database.")
	return nil
}

// SaveTo adds what the counters gained since the last load or save
func (m *BotMetrics) SaveTo(store Store) error {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	for _, c := range m.counters() {
		value := GetMetricValue(c.counter)
		delta := value - m.persisted[c.name]
		if delta == 0 {
			continue
		}
		if err := store.AddMetric(c.name, delta); err != nil {
			return errors.Wrapf(err, "save metric %s", c.name)
		}
		m.persisted[c.name] = value
	}

	log.Debug("Metrics saved to database.")
	return nil
}

func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
