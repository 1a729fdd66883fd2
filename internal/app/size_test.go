package app

import (
	"strings"
	"testing"

	"github.com/bft-labs/meshlog/internal/domain"
)

func TestEstimateSize_WireLayout(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.LogEntry
		want  int
	}{
		// timestamp (2) + httpRequest holding an empty latency (1+1+2)
		{"empty", domain.LogEntry{}, 5},
		{"severity", domain.LogEntry{Severity: domain.SeverityInfo}, 5 + 3},
		{"one label", domain.LogEntry{Labels: map[string]string{"a": "b"}}, 5 + 8},
		{"method", domain.LogEntry{HTTPRequest: domain.HTTPRequest{RequestMethod: "GET"}}, 5 + 6},
		{"trace", domain.LogEntry{Trace: "t"}, 5 + 4},
		{"sampled", domain.LogEntry{TraceSampled: true}, 5 + 3},
		{"timestamp", domain.LogEntry{Timestamp: domain.Timestamp{Seconds: 1, Nanos: 1}}, 5 + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateSize(&tt.entry); got != tt.want {
				t.Errorf("EstimateSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateSize_GrowsWithContent(t *testing.T) {
	small := BuildEntry("p", sampleRequest(0), peerNode())

	req := sampleRequest(0)
	req.URLPath = "/" + strings.Repeat("x", 500)
	large := BuildEntry("p", req, peerNode())

	s, l := EstimateSize(&small), EstimateSize(&large)
	if l <= s {
		t.Fatalf("larger entry estimated at %d, smaller at %d", l, s)
	}
	// 491 more path bytes, plus one more length byte for the url and one
	// for the enclosing httpRequest message
	if l-s != 493 {
		t.Errorf("size delta = %d, want 493", l-s)
	}
}

func TestEstimateSize_RealisticEntryIsPositive(t *testing.T) {
	e := BuildEntry("demo-project", sampleRequest(0), peerNode())
	if EstimateSize(&e) < 200 {
		t.Errorf("EstimateSize() = %d, implausibly small for a full entry", EstimateSize(&e))
	}
}
