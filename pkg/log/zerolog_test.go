package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l.Info("exported",
		String("batch", "b-1"),
		Int("entries", 3),
		Int64("bytes", 1200),
		Bool("ok", true),
		Duration("took", 2*time.Millisecond),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"message":"exported"`, `"batch":"b-1"`, `"entries":3`, `"bytes":1200`, `"ok":true`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestZerologAdapter_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	l.Debug("hidden", String("k", "v"))
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn message missing: %q", buf.String())
	}
}

func TestWith_PrependsFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewZerologAdapterWithLogger(zerolog.New(&buf))

	l := With(With(base, String("component", "exporter")), String("kind", "http"))
	l.Error("failed", Int("batches", 2))

	out := buf.String()
	for _, want := range []string{`"component":"exporter"`, `"kind":"http"`, `"batches":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestNewConsoleLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := NewConsoleLogger(&bytes.Buffer{}, "loud")
	if l.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", l.GetLevel())
	}
}
