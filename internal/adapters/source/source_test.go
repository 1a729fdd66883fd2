package source

import (
	"sync"

	"github.com/bft-labs/meshlog/internal/domain"
)

// collector is a ports.RecordHandler that keeps every record.
type collector struct {
	mu      sync.Mutex
	records []domain.Record
}

func (c *collector) HandleRecord(rec domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func (c *collector) Records() []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Record(nil), c.records...)
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

const fullRecord = `{
  "request": {
    "start_time": "2024-05-01T12:00:00.25Z",
    "duration": "1.5s",
    "request_id": "req-1",
    "method": "GET",
    "protocol": "HTTP/1.1",
    "url_scheme": "http",
    "url_host": "reviews:9080",
    "url_path": "/reviews/0",
    "request_size": 120,
    "response_size": 2048,
    "response_code": 200,
    "user_agent": "curl/8.0",
    "referer": "http://productpage/",
    "source_address": "10.0.0.1",
    "destination_address": "10.0.0.2",
    "destination_service_host": "reviews.bookinfo.svc.cluster.local",
    "response_flag": "-",
    "source_principal": "spiffe://cluster.local/ns/bookinfo/sa/productpage",
    "destination_principal": "spiffe://cluster.local/ns/bookinfo/sa/reviews",
    "service_auth_policy": "MUTUAL_TLS",
    "b3_trace_id": "463ac35c9f6413ad",
    "b3_span_id": "a2fb4a1d1a96d312",
    "b3_trace_sampled": true
  },
  "peer": {
    "name": "productpage-v1-55f",
    "workload_name": "productpage-v1",
    "namespace": "bookinfo",
    "labels": {"app": "productpage", "version": "v1", "replicas": 3}
  }
}`

func line(id string) string {
	return `{"request":{"request_id":"` + id + `","duration":1000,"start_time":1700000000000000000},"peer":{"name":"p"}}` + "\n"
}
