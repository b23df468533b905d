package plugins

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records the outcome of plugin loads.
type Metrics struct {
	LoadsTotal   *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	Registered   prometheus.Gauge
}

// NewMetrics creates the loader metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blocks_plugin_loads_total",
				Help: "Total number of plugin load attempts by result",
			},
			[]string{"result"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blocks_plugin_load_duration_seconds",
				Help:    "Time spent loading a single plugin",
				Buckets: prometheus.DefBuckets,
			},
		),
		Registered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blocks_plugins_registered",
				Help: "Number of plugins in the registry",
			},
		),
	}

	reg.MustRegister(m.LoadsTotal, m.LoadDuration, m.Registered)
	return m
}

func (m *Metrics) observeLoad(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(KindOf(err)).Inc()
	m.LoadDuration.Observe(d.Seconds())
}

func (m *Metrics) setRegistered(n int) {
	if m == nil {
		return
	}
	m.Registered.Set(float64(n))
}
