package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/services", "GET", 200, time.Millisecond)
		m.CatalogWrite("upsert", nil)
		m.StatusCounts(map[string]int{"Down": 1})
		m.ProbeRun(ProbeDown)
		m.ExpiryTransitions(3)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CatalogWrite("upsert", nil)
	m.CatalogWrite("upsert", errors.New("boom"))
	m.CatalogWrite("upsert", nil)
	m.ProbeRun(ProbeOperational)
	m.ExpiryTransitions(2)
	m.ExpiryTransitions(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.catalogWrites.WithLabelValues("upsert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogWrites.WithLabelValues("upsert", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.probeRuns.WithLabelValues(ProbeOperational)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.expiryTransitions))
}

func TestStatusCountsZeroesMissing(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StatusCounts(map[string]int{"Down": 4, "Operational": 1})
	m.StatusCounts(map[string]int{"Operational": 2})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.statusCount.WithLabelValues("Down")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusCount.WithLabelValues("Operational")))
}
