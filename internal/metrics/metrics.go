// Package metrics exposes Prometheus metrics for the burn jobs and the
// upstream indexing API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	JobRuns          *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	DatasetRows      *prometheus.GaugeVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burn",
			Name:      "job_runs_total",
			Help:      "Job triggers by outcome (fresh, success, error)",
		},
		[]string{"job", "outcome"},
	)
	m.JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "burn",
			Name:      "job_duration_seconds",
			Help:      "Wall time of job triggers",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"job"},
	)
	m.UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burn",
			Name:      "upstream_requests_total",
			Help:      "Requests to the indexing API by endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)
	m.DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "burn",
			Name:      "dataset_rows",
			Help:      "Rows in the last computed dataset",
		},
		[]string{"dataset"},
	)

	m.registry.MustRegister(m.JobRuns, m.JobDuration, m.UpstreamRequests, m.DatasetRows)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveJob(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// ObserveUpstream records one upstream request; code 0 means a transport error.
func (m *Metrics) ObserveUpstream(endpoint string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.UpstreamRequests.WithLabelValues(endpoint, label).Inc()
}

func (m *Metrics) SetRows(dataset string, n int) {
	if m == nil {
		return
	}
	m.DatasetRows.WithLabelValues(dataset).Set(float64(n))
}
