// Package metrics exposes the batching logger and agent as Prometheus
// metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/meshlog/internal/app"
	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
)

// Metrics bundles the prometheus collectors of the agent. It implements
// ports.Observer and app.EventEmitter.
type Metrics struct {
	EntriesTotal      prometheus.Counter
	EntryBytes        prometheus.Histogram
	BatchesFlushed    *prometheus.CounterVec
	ExportsTotal      *prometheus.CounterVec
	ExportedBatches   prometheus.Counter
	ExportedEntries   prometheus.Counter
	ExportDurationSec prometheus.Histogram
	AgentState        prometheus.Gauge
	IngestRequests    *prometheus.CounterVec
	IngestDurationSec prometheus.Histogram
	registry          *prometheus.Registry
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		EntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_entries_total",
			Help: "Total number of access log entries added.",
		}),
		EntryBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshlog_entry_bytes",
			Help:    "Estimated encoded size of access log entries.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		}),
		BatchesFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshlog_batches_flushed_total",
			Help: "Total number of batches sealed, by reason.",
		}, []string{"reason"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshlog_exports_total",
			Help: "Total number of exporter calls, by result.",
		}, []string{"result"}),
		ExportedBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_exported_batches_total",
			Help: "Total number of batches handed to the exporter.",
		}),
		ExportedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlog_exported_entries_total",
			Help: "Total number of entries handed to the exporter.",
		}),
		ExportDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshlog_export_duration_seconds",
			Help:    "Exporter call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		AgentState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meshlog_agent_state",
			Help: "Agent lifecycle state (0 stopped, 1 starting, 2 running, 3 stopping, 4 crashed).",
		}),
		IngestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshlog_ingest_requests_total",
			Help: "Total number of ingest HTTP requests.",
		}, []string{"method", "status"}),
		IngestDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meshlog_ingest_request_duration_seconds",
			Help:    "Ingest request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.EntriesTotal,
		m.EntryBytes,
		m.BatchesFlushed,
		m.ExportsTotal,
		m.ExportedBatches,
		m.ExportedEntries,
		m.ExportDurationSec,
		m.AgentState,
		m.IngestRequests,
		m.IngestDurationSec,
	)

	return m
}

// OnEntryAdded implements ports.Observer.
func (m *Metrics) OnEntryAdded(size int) {
	m.EntriesTotal.Inc()
	m.EntryBytes.Observe(float64(size))
}

// OnFlush implements ports.Observer.
func (m *Metrics) OnFlush(b *domain.Batch, reason ports.FlushReason) {
	m.BatchesFlushed.WithLabelValues(string(reason)).Inc()
}

// OnExport implements ports.Observer.
func (m *Metrics) OnExport(batches, entries int, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.ExportsTotal.WithLabelValues(result).Inc()
	m.ExportedBatches.Add(float64(batches))
	m.ExportedEntries.Add(float64(entries))
	m.ExportDurationSec.Observe(d.Seconds())
}

// OnStateChange implements app.EventEmitter.
func (m *Metrics) OnStateChange(previous, current app.State, reason string) {
	m.AgentState.Set(float64(current))
}

// WatchQueue registers gauges that sample the logger's pending queue and
// current batch on every scrape.
func (m *Metrics) WatchQueue(l *app.BatchingLogger) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "meshlog_pending_batches",
			Help: "Sealed batches waiting for the next export.",
		}, func() float64 { return float64(l.Pending()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "meshlog_current_batch_bytes",
			Help: "Estimated size of the batch being filled.",
		}, func() float64 { return float64(l.CurrentSize()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests to the wrapped ingest handler.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.IngestRequests.WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		m.IngestDurationSec.Observe(time.Since(startedAt).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// HealthHandler reports the agent state; it answers 503 unless the agent is
// starting or running.
func HealthHandler(status func() app.State) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := status()
		code := http.StatusOK
		if state != app.StateRunning && state != app.StateStarting {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": state.String()})
	})
}
