package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDashboardMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetDataset(120, 3)
	m.ObserveView("yearly_sales", 5*time.Millisecond, nil)
	m.ObserveView("yearly_sales", time.Millisecond, errors.New("boom"))
	m.ObserveView("", time.Millisecond, nil)
	m.IncExport("csv")

	assert.Equal(t, float64(120), testutil.ToFloat64(m.datasetRows))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.datasetDropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.views.WithLabelValues("yearly_sales", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.views.WithLabelValues("yearly_sales", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.views.WithLabelValues("unknown", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.exports.WithLabelValues("csv")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.viewDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *DashboardMetrics
	assert.Nil(t, New(nil))
	assert.NotPanics(t, func() {
		m.SetDataset(1, 0)
		m.ObserveView("x", time.Second, nil)
		m.IncExport("arrow")
	})
}
