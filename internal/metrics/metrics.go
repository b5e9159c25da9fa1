// Package metrics holds the Prometheus collectors of the dashboard.
//
// Every method is safe on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

const namespace = "ussm"

// Probe outcomes recorded by ProbeRun.
const (
	ProbeOperational = "operational"
	ProbeDown        = "down"
	ProbeSkipped     = "skipped"
	ProbeNoTarget    = "no_target"
	ProbeFailed      = "failed"
)

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	catalogWrites *prometheus.CounterVec
	statusCount   *prometheus.GaugeVec

	probeRuns         *prometheus.CounterVec
	expiryTransitions prometheus.Counter
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		catalogWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "writes_total",
			Help:      "Catalog writes by operation and result.",
		}, []string{"op", "result"}),
		statusCount: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "services",
			Help:      "Services per status as of the last sweep.",
		}, []string{"status"}),
		probeRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "runs_total",
			Help:      "Health probe ticks by outcome.",
		}, []string{"outcome"}),
		expiryTransitions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "expiry",
			Name:      "transitions_total",
			Help:      "Services moved out of planned maintenance by the sweep.",
		}),
	}
}

func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) CatalogWrite(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogWrites.WithLabelValues(op, result).Inc()
}

// StatusCounts publishes per-status totals; keys not in counts are zeroed.
func (m *Metrics) StatusCounts(counts map[string]int) {
	if m == nil {
		return
	}
	for _, st := range domain.Statuses {
		m.statusCount.WithLabelValues(string(st)).Set(float64(counts[string(st)]))
	}
	m.statusCount.WithLabelValues("Other").Set(float64(counts["Other"]))
}

func (m *Metrics) ProbeRun(outcome string) {
	if m == nil {
		return
	}
	m.probeRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ExpiryTransitions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expiryTransitions.Add(float64(n))
}
