package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics records dataset size and view/export activity.
// A nil *DashboardMetrics is valid and records nothing.
type DashboardMetrics struct {
	datasetRows    prometheus.Gauge
	datasetDropped prometheus.Gauge
	views          *prometheus.CounterVec
	viewDuration   *prometheus.HistogramVec
	exports        *prometheus.CounterVec
}

// New registers the dashboard metrics on reg.
func New(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return nil
	}
	m := &DashboardMetrics{
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "dataset_rows",
			Help:      "Rows retained in the loaded dataset.",
		}),
		datasetDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "dataset_rows_dropped",
			Help:      "Source rows dropped because their sales figure could not be parsed.",
		}),
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "view_resolutions_total",
			Help:      "View resolutions by view and outcome.",
		}, []string{"view", "outcome"}),
		viewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "view_duration_seconds",
			Help:      "Time spent filtering and resolving a view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "exports_total",
			Help:      "Exports served by format.",
		}, []string{"format"}),
	}
	reg.MustRegister(m.datasetRows, m.datasetDropped, m.views, m.viewDuration, m.exports)
	return m
}

// SetDataset records the size of the loaded dataset.
func (m *DashboardMetrics) SetDataset(rows, dropped int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(rows))
	m.datasetDropped.Set(float64(dropped))
}

// ObserveView records one resolution of view.
func (m *DashboardMetrics) ObserveView(view string, d time.Duration, err error) {
	if m == nil {
		return
	}
	view = normalizeLabel(view)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.views.WithLabelValues(view, outcome).Inc()
	m.viewDuration.WithLabelValues(view).Observe(d.Seconds())
}

// IncExport counts one export in the given format.
func (m *DashboardMetrics) IncExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(normalizeLabel(format)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
