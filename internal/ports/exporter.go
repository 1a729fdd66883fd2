package ports

import (
	"context"

	"github.com/bft-labs/meshlog/internal/domain"
)

// Exporter delivers completed batches to a remote log sink.
//
// Batches arrive in flush order, each carrying its own template and entries.
// Export reports failure per batch (typically joined with errors.Join); the
// caller drops its reference to the batches whatever the outcome, so any
// retry or dead-lettering is the exporter's own business.
type Exporter interface {
	Export(ctx context.Context, batches []*domain.Batch) error
}

// ExporterFunc adapts an ordinary function to the Exporter interface.
type ExporterFunc func(ctx context.Context, batches []*domain.Batch) error

// Export calls f(ctx, batches).
func (f ExporterFunc) Export(ctx context.Context, batches []*domain.Batch) error {
	return f(ctx, batches)
}
