package app

import (
	"testing"
	"time"

	"github.com/bft-labs/meshlog/internal/domain"
)

func TestBuildEntry(t *testing.T) {
	req := sampleRequest(0)
	entry := BuildEntry("demo-project", req, peerNode())

	if entry.Severity != domain.SeverityInfo {
		t.Errorf("severity = %v, want INFO", entry.Severity)
	}
	if entry.Timestamp != (domain.Timestamp{Seconds: 1700000000, Nanos: 250000000}) {
		t.Errorf("timestamp = %+v", entry.Timestamp)
	}

	assertLabels(t, "entry", entry.Labels, map[string]string{
		"request_id":                    "req-0",
		"source_name":                   "productpage-v1-55f",
		"source_workload":               "productpage-v1",
		"source_namespace":              "bookinfo",
		"source_version":                "v1",
		"source_app":                    "productpage",
		"destination_service_host":      "reviews.bookinfo.svc.cluster.local",
		"response_flag":                 "-",
		"destination_principal":         "spiffe://cluster.local/ns/bookinfo/sa/reviews",
		"source_principal":              "spiffe://cluster.local/ns/bookinfo/sa/productpage",
		"service_authentication_policy": "MUTUAL_TLS",
	})

	want := domain.HTTPRequest{
		RequestMethod: "GET",
		RequestURL:    "http://reviews:9080/reviews/0",
		RequestSize:   120,
		Status:        200,
		ResponseSize:  2048,
		UserAgent:     "curl/8.0",
		RemoteIP:      "10.0.0.1",
		ServerIP:      "10.0.0.2",
		Protocol:      "HTTP/1.1",
		Latency:       domain.Duration{Seconds: 1, Nanos: 500000000},
	}
	if entry.HTTPRequest != want {
		t.Errorf("httpRequest = %+v\nwant %+v", entry.HTTPRequest, want)
	}

	if entry.Trace != "" || entry.SpanID != "" || entry.TraceSampled {
		t.Errorf("unsampled request carries trace fields: %q %q %v", entry.Trace, entry.SpanID, entry.TraceSampled)
	}
}

func TestBuildEntry_PeerWithoutOptionalLabels(t *testing.T) {
	peer := peerNode()
	peer.Labels = map[string]string{"team": "web"}

	entry := BuildEntry("demo-project", sampleRequest(0), peer)

	for _, key := range []string{"source_app", "source_version"} {
		if _, ok := entry.Labels[key]; ok {
			t.Errorf("label %q present for peer without it", key)
		}
	}
}

func TestBuildEntry_SampledTrace(t *testing.T) {
	req := sampleRequest(0)
	req.B3TraceID = "463ac35c9f6413ad48485a3953bb6124"
	req.B3SpanID = "a2fb4a1d1a96d312"
	req.B3TraceSampled = true

	entry := BuildEntry("demo-project", req, peerNode())

	if entry.Trace != "projects/demo-project/traces/463ac35c9f6413ad48485a3953bb6124" {
		t.Errorf("trace = %q", entry.Trace)
	}
	if entry.SpanID != "a2fb4a1d1a96d312" || !entry.TraceSampled {
		t.Errorf("span = %q sampled = %v", entry.SpanID, entry.TraceSampled)
	}
}

func TestBuildEntry_AuthPolicyLabel(t *testing.T) {
	tests := []struct {
		policy domain.AuthPolicy
		want   string
	}{
		{domain.AuthPolicyUnspecified, ""},
		{domain.AuthPolicyNone, "NONE"},
		{domain.AuthPolicyMutualTLS, "MUTUAL_TLS"},
	}
	for _, tt := range tests {
		req := sampleRequest(0)
		req.ServiceAuthPolicy = tt.policy
		entry := BuildEntry("p", req, peerNode())
		if got := entry.Labels["service_authentication_policy"]; got != tt.want {
			t.Errorf("policy %d label = %q, want %q", tt.policy, got, tt.want)
		}
	}
}

func TestBuildEntry_SubSecondLatency(t *testing.T) {
	req := sampleRequest(0)
	req.Duration = 42 * time.Millisecond

	entry := BuildEntry("p", req, peerNode())

	if entry.HTTPRequest.Latency != (domain.Duration{Seconds: 0, Nanos: 42000000}) {
		t.Errorf("latency = %+v", entry.HTTPRequest.Latency)
	}
}
