package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/meshlog/internal/app"
	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func assertScrape(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w+"\n") {
			t.Errorf("scrape missing %q", w)
		}
	}
}

func TestMetrics_Observer(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OnEntryAdded(120)
	m.OnEntryAdded(300)
	m.OnFlush(&domain.Batch{}, ports.FlushSize)
	m.OnFlush(&domain.Batch{}, ports.FlushExport)
	m.OnFlush(&domain.Batch{}, ports.FlushExport)
	m.OnExport(2, 5, 40*time.Millisecond, nil)
	m.OnExport(1, 1, time.Millisecond, errors.New("down"))

	assertScrape(t, scrape(t, m),
		"meshlog_entries_total 2",
		"meshlog_entry_bytes_count 2",
		`meshlog_batches_flushed_total{reason="size"} 1`,
		`meshlog_batches_flushed_total{reason="export"} 2`,
		`meshlog_exports_total{result="success"} 1`,
		`meshlog_exports_total{result="error"} 1`,
		"meshlog_exported_batches_total 3",
		"meshlog_exported_entries_total 6",
		"meshlog_export_duration_seconds_count 2",
	)
}

func TestMetrics_WiredIntoLogger(t *testing.T) {
	m := New(prometheus.NewRegistry())

	exp := ports.ExporterFunc(func(ctx context.Context, batches []*domain.Batch) error { return nil })
	l := app.NewBatchingLogger(domain.NodeInfo{Name: "n"}, exp, 1<<20, app.WithObserver(m))
	m.WatchQueue(l)

	l.AddEntry(domain.RequestInfo{RequestID: "r1"}, domain.NodeInfo{})
	l.Flush()

	assertScrape(t, scrape(t, m),
		"meshlog_entries_total 1",
		`meshlog_batches_flushed_total{reason="manual"} 1`,
		"meshlog_pending_batches 1",
		"meshlog_current_batch_bytes 0",
	)

	l.ExportPending(context.Background())
	assertScrape(t, scrape(t, m),
		"meshlog_exported_batches_total 1",
		"meshlog_pending_batches 0",
	)
}

func TestMetrics_StateAndMiddleware(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.OnStateChange(app.StateStarting, app.StateRunning, "test")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/requests", nil))

	assertScrape(t, scrape(t, m),
		"meshlog_agent_state 2",
		`meshlog_ingest_requests_total{method="POST",status="202"} 1`,
	)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		state app.State
		want  int
	}{
		{app.StateRunning, http.StatusOK},
		{app.StateStarting, http.StatusOK},
		{app.StateStopping, http.StatusServiceUnavailable},
		{app.StateCrashed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HealthHandler(func() app.State { return tt.state }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.state, rec.Code, tt.want)
		}
		if !strings.Contains(rec.Body.String(), tt.state.String()) {
			t.Errorf("%v: body = %s", tt.state, rec.Body.String())
		}
	}
}
