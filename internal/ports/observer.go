package ports

import (
	"time"

	"github.com/bft-labs/meshlog/internal/domain"
)

// FlushReason tells why a batch was sealed.
type FlushReason string

const (
	// FlushSize means the running size estimate exceeded the limit.
	FlushSize FlushReason = "size"

	// FlushExport means ExportPending sealed a partially filled batch.
	FlushExport FlushReason = "export"

	// FlushManual means Flush was called directly.
	FlushManual FlushReason = "manual"
)

// Observer is notified of batching and export activity.
// Calls are made synchronously; implementations must be cheap and must not
// call back into the logger.
type Observer interface {
	OnEntryAdded(size int)
	OnFlush(batch *domain.Batch, reason FlushReason)
	OnExport(batches, entries int, duration time.Duration, err error)
}
