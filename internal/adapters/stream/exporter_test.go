package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bft-labs/meshlog/internal/domain"
)

func testBatch(id string, entries int) *domain.Batch {
	b := domain.NewBatch(domain.Template{LogName: "projects/p/logs/server-accesslog-stackdriver"})
	b.ID = id
	for i := 0; i < entries; i++ {
		b.Add(domain.LogEntry{Severity: domain.SeverityInfo}, 1)
	}
	return b
}

func TestExporter_WritesOneLinePerBatch(t *testing.T) {
	var buf bytes.Buffer
	e := NewExporter(&buf)

	if err := e.Export(context.Background(), []*domain.Batch{testBatch("a", 2), testBatch("b", 1)}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var ids []string
	for sc.Scan() {
		var env struct {
			BatchID string            `json:"batchId"`
			Entries []json.RawMessage `json:"entries"`
		}
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		ids = append(ids, env.BatchID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("batch ids = %v, want [a b]", ids)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestExporter_WriteError(t *testing.T) {
	e := NewExporter(failingWriter{})
	if err := e.Export(context.Background(), []*domain.Batch{testBatch("a", 1)}); err == nil {
		t.Error("Export() error = nil on a failing writer")
	}
}

func TestExporter_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewExporter(&buf).Export(ctx, []*domain.Batch{testBatch("a", 1)}); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Error("wrote after cancellation")
	}
}
