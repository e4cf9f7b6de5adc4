// Package metrics exposes Prometheus instrumentation for the indexer and
// the read API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cetus_indexer"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CheckpointsProcessed prometheus.Counter
	LatestCheckpoint     prometheus.Gauge
	EventsDecoded        *prometheus.CounterVec
	DecodeFailures       *prometheus.CounterVec
	Commits              *prometheus.CounterVec
	CommitDuration       prometheus.Histogram
	RowsUpserted         *prometheus.CounterVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CheckpointsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "checkpoints_processed_total",
			Help: "Checkpoints extracted and committed",
		}),
		LatestCheckpoint: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "latest_checkpoint",
			Help: "Highest checkpoint sequence number durably committed",
		}),
		EventsDecoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_decoded_total",
			Help: "Events matched and decoded, by kind",
		}, []string{"kind"}),
		DecodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "decode_failures_total",
			Help: "Events matched by type but dropped because the payload did not decode",
		}, []string{"kind"}),
		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commits_total",
			Help: "Commit attempts by status",
		}, []string{"status"}),
		CommitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "commit_duration_seconds",
			Help: "Commit latency", Buckets: prometheus.DefBuckets,
		}),
		RowsUpserted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_upserted_total",
			Help: "Rows written by table",
		}, []string{"table"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Read API requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help: "Read API latency", Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Decoded(kind string) {
	if m == nil {
		return
	}
	m.EventsDecoded.WithLabelValues(kind).Inc()
}

func (m *Metrics) DecodeFailed(kind string) {
	if m == nil {
		return
	}
	m.DecodeFailures.WithLabelValues(kind).Inc()
}

// CommitDone records a commit attempt and its latency in seconds.
func (m *Metrics) CommitDone(err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Commits.WithLabelValues(status).Inc()
	m.CommitDuration.Observe(seconds)
}

func (m *Metrics) Upserted(table string, rows int) {
	if m == nil || rows == 0 {
		return
	}
	m.RowsUpserted.WithLabelValues(table).Add(float64(rows))
}

// CheckpointDone records a fully committed checkpoint.
func (m *Metrics) CheckpointDone() {
	if m == nil {
		return
	}
	m.CheckpointsProcessed.Inc()
}

// Watermark records the highest durably committed checkpoint.
func (m *Metrics) Watermark(seq uint64) {
	if m == nil {
		return
	}
	m.LatestCheckpoint.Set(float64(seq))
}

// Request records one served HTTP request.
func (m *Metrics) Request(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
