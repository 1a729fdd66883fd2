// Package stream writes access log batches as newline-delimited JSON.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/meshlog/internal/domain"
)

// Exporter implements ports.Exporter by writing one JSON envelope per batch
// and line to w.
type Exporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewExporter creates an exporter writing to w.
func NewExporter(w io.Writer) *Exporter {
	return &Exporter{w: w}
}

// Export writes all batches and flushes once. A write error aborts the
// remaining batches since the stream is then unusable.
func (e *Exporter) Export(ctx context.Context, batches []*domain.Batch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bw := bufio.NewWriter(e.w)
	enc := json.NewEncoder(bw)
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(domain.NewEnvelope(b)); err != nil {
			return fmt.Errorf("batch %s: %w", b.ID, err)
		}
	}
	return bw.Flush()
}
