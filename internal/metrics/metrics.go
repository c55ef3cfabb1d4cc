// Package metrics exposes pipeline and dashboard counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	rowsRead      *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	missingShops  prometheus.Gauge
	lastSuccess   prometheus.Gauge
	fileLoads     *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the
// process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "openslots",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openslots",
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		rowsRead: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openslots",
			Name:      "source_rows_read_total",
			Help:      "Rows read per input source.",
		}, []string{"source"}),
		rowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openslots",
			Name:      "source_rows_dropped_total",
			Help:      "Rows dropped per input source and reason.",
		}, []string{"source", "reason"}),
		missingShops: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "openslots",
			Name:      "missing_shop_codes",
			Help:      "Shop codes seen in schedules but absent from the region mapping.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "openslots",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed pipeline run.",
		}),
		fileLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openslots",
			Name:      "dashboard_file_loads_total",
			Help:      "Report files loaded by the dashboard, by kind and whether a fallback date was used.",
		}, []string{"kind", "stale"}),
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveSource(source string, read int, dropped map[string]int) {
	m.rowsRead.WithLabelValues(source).Add(float64(read))
	for reason, n := range dropped {
		m.rowsDropped.WithLabelValues(source, reason).Add(float64(n))
	}
}

func (m *Metrics) SetMissingShops(n int) {
	m.missingShops.Set(float64(n))
}

func (m *Metrics) RunSucceeded(at time.Time) {
	m.lastSuccess.Set(float64(at.Unix()))
}

// FileLoaded counts a dashboard report load.
func (m *Metrics) FileLoaded(kind string, stale bool) {
	label := "false"
	if stale {
		label = "true"
	}
	m.fileLoads.WithLabelValues(kind, label).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
