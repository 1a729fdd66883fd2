package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
)

// recordingExporter captures every Export call.
type recordingExporter struct {
	mu    sync.Mutex
	calls [][]*domain.Batch
	err   error
}

func (e *recordingExporter) Export(ctx context.Context, batches []*domain.Batch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, batches)
	return e.err
}

func (e *recordingExporter) Calls() [][]*domain.Batch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]*domain.Batch{}, e.calls...)
}

func (e *recordingExporter) Entries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var n int
	for _, c := range e.calls {
		n += domain.CountEntries(c)
	}
	return n
}

// recordingObserver captures observer callbacks.
type recordingObserver struct {
	mu      sync.Mutex
	added   []int
	flushes []ports.FlushReason
	exports []error
}

func (o *recordingObserver) OnEntryAdded(size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.added = append(o.added, size)
}

func (o *recordingObserver) OnFlush(b *domain.Batch, reason ports.FlushReason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes = append(o.flushes, reason)
}

func (o *recordingObserver) OnExport(batches, entries int, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exports = append(o.exports, err)
}

var errExport = errors.New("sink unavailable")

func fixedSize(n int) Option {
	return WithSizer(func(*domain.LogEntry) int { return n })
}

func localNode() domain.NodeInfo {
	return domain.NodeInfo{
		Name:         "reviews-v1-7d8f",
		WorkloadName: "reviews-v1",
		Namespace:    "bookinfo",
		MeshID:       "mesh-1",
		Labels:       map[string]string{"app": "reviews", "version": "v1"},
		PlatformMetadata: map[string]string{
			domain.GCPProjectKey:     "demo-project",
			domain.GCPClusterNameKey: "prod-cluster",
			domain.GCPLocationKey:    "us-central1-a",
		},
	}
}

func peerNode() domain.NodeInfo {
	return domain.NodeInfo{
		Name:         "productpage-v1-55f",
		WorkloadName: "productpage-v1",
		Namespace:    "bookinfo",
		Labels:       map[string]string{"app": "productpage", "version": "v1"},
	}
}

func sampleRequest(i int) domain.RequestInfo {
	return domain.RequestInfo{
		StartTime:              time.Unix(1700000000, 250000000).Add(time.Duration(i) * time.Second),
		Duration:               1500 * time.Millisecond,
		RequestID:              fmt.Sprintf("req-%d", i),
		RequestOperation:       "GET",
		RequestProtocol:        "HTTP/1.1",
		URLScheme:              "http",
		URLHost:                "reviews:9080",
		URLPath:                "/reviews/0",
		RequestSize:            120,
		ResponseSize:           2048,
		ResponseCode:           200,
		UserAgent:              "curl/8.0",
		SourceAddress:          "10.0.0.1",
		DestinationAddress:     "10.0.0.2",
		DestinationServiceHost: "reviews.bookinfo.svc.cluster.local",
		ResponseFlag:           "-",
		SourcePrincipal:        "spiffe://cluster.local/ns/bookinfo/sa/productpage",
		DestinationPrincipal:   "spiffe://cluster.local/ns/bookinfo/sa/reviews",
		ServiceAuthPolicy:      domain.AuthPolicyMutualTLS,
	}
}
