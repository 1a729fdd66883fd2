package ports

import (
	"context"

	"github.com/bft-labs/meshlog/internal/domain"
)

// RecordHandler accepts request records produced by a record source.
// Implementations must be safe for concurrent use.
type RecordHandler interface {
	HandleRecord(rec domain.Record)
}

// RecordSource produces request records until its context is canceled or,
// for finite sources, until the input is exhausted.
type RecordSource interface {
	// Name identifies the source in logs.
	Name() string

	// Run delivers records to h. It returns nil when the input is exhausted
	// and ctx.Err() when canceled.
	Run(ctx context.Context, h RecordHandler) error
}
