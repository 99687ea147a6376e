package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/playercore/internal/playback"
)

const metricsNamespace = "playercore"

// Metrics holds the application's collectors in a registry of its own, so
// several applications in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	pluginsLoaded  prometheus.Gauge
	startupSeconds prometheus.Gauge
	transitions    *prometheus.CounterVec
	listenerErrors *prometheus.CounterVec
	persistBytes   *prometheus.CounterVec
	contribution   *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "plugins_loaded",
			Help:      "Number of loaded plugins.",
		}),
		startupSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "startup_seconds",
			Help:      "Duration of the startup sequence.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "playback_transitions_total",
			Help:      "Playback state transitions.",
		}, []string{"from", "to"}),
		listenerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listener_errors_total",
			Help:      "Playback listener failures.",
		}, []string{"plugin"}),
		persistBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persist_bytes_total",
			Help:      "Bytes of plugin state written.",
		}, []string{"plugin"}),
		contribution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "contribution_seconds",
			Help:      "Duration of each library contribution.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"plugin"}),
	}

	m.registry.MustRegister(
		m.pluginsLoaded,
		m.startupSeconds,
		m.transitions,
		m.listenerErrors,
		m.persistBytes,
		m.contribution,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Transition implements playback.Observer.
func (m *Metrics) Transition(old, new playback.State) {
	m.transitions.WithLabelValues(old.Kind.String(), new.Kind.String()).Inc()
}

// ListenerFailed implements playback.Observer.
func (m *Metrics) ListenerFailed(plugin string, _ error) {
	m.listenerErrors.WithLabelValues(plugin).Inc()
}

func (m *Metrics) recordPersist(plugin string, n int) {
	m.persistBytes.WithLabelValues(plugin).Add(float64(n))
}

func (m *Metrics) recordContribution(plugin string, d time.Duration, _ error) {
	m.contribution.WithLabelValues(plugin).Observe(d.Seconds())
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
