package app

import (
	"context"
	"sync"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

// BatchingLogger turns completed requests into access log entries, groups
// them into size-bounded batches that share one template, and hands sealed
// batches to an exporter.
//
// AddEntry and Flush may be called concurrently. Appending, the size check
// and the resulting flush happen under one mutex, so a batch is sealed at
// most once and the pending queue stays in flush order. Exports are
// serialized separately and run without holding the batch mutex.
type BatchingLogger struct {
	mu       sync.Mutex
	exportMu sync.Mutex

	template  domain.Template
	projectID string
	limit     int

	current *domain.Batch
	pending []*domain.Batch

	exporter ports.Exporter
	opts     options
}

// NewBatchingLogger creates a logger for the local node. A sizeLimit of zero
// or less seals the batch after every entry.
func NewBatchingLogger(local domain.NodeInfo, exporter ports.Exporter, sizeLimit int, opts ...Option) *BatchingLogger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	template, projectID := NewTemplate(local)
	return &BatchingLogger{
		template:  template,
		projectID: projectID,
		limit:     sizeLimit,
		current:   domain.NewBatch(template),
		exporter:  exporter,
		opts:      o,
	}
}

// AddEntry appends one entry built from req and peer to the current batch.
// When the running size estimate exceeds the limit the batch is sealed and
// queued before AddEntry returns.
func (l *BatchingLogger) AddEntry(req domain.RequestInfo, peer domain.NodeInfo) {
	entry := BuildEntry(l.projectID, req, peer)
	size := l.opts.sizer(&entry)
	if size < 1 {
		size = 1
	}

	l.mu.Lock()
	l.current.Add(entry, size)
	var sealed *domain.Batch
	if l.current.EstimatedSize > l.limit {
		sealed = l.flushLocked()
	}
	l.mu.Unlock()

	if obs := l.opts.observer; obs != nil {
		obs.OnEntryAdded(size)
	}
	if sealed != nil {
		l.notifyFlush(sealed, ports.FlushSize)
	}
}

// Flush seals the current batch and moves it to the tail of the pending
// queue. It returns false, changing nothing, when the batch has no entries.
func (l *BatchingLogger) Flush() bool {
	l.mu.Lock()
	sealed := l.flushLocked()
	l.mu.Unlock()

	if sealed == nil {
		return false
	}
	l.notifyFlush(sealed, ports.FlushManual)
	return true
}

// ExportPending seals any partially filled batch and hands the whole pending
// queue to the exporter in one call. The exporter is not called when there is
// nothing to export. The queue is dropped after the call whatever its
// outcome; export errors are logged and reported to the observer only.
func (l *BatchingLogger) ExportPending(ctx context.Context) {
	l.exportMu.Lock()
	defer l.exportMu.Unlock()

	l.mu.Lock()
	sealed := l.flushLocked()
	if sealed == nil && len(l.pending) == 0 {
		l.mu.Unlock()
		return
	}
	batches := l.pending
	l.pending = nil
	l.mu.Unlock()

	if sealed != nil {
		l.notifyFlush(sealed, ports.FlushExport)
	}

	entries := domain.CountEntries(batches)
	start := l.opts.now()
	err := l.exporter.Export(ctx, batches)
	took := l.opts.now().Sub(start)

	if obs := l.opts.observer; obs != nil {
		obs.OnExport(len(batches), entries, took, err)
	}
	if err != nil {
		l.opts.logger.Warn("export failed, dropping batches",
			log.Err(err),
			log.Int("batches", len(batches)),
			log.Int("entries", entries),
		)
		return
	}
	l.opts.logger.Info("exported batches",
		log.Int("batches", len(batches)),
		log.Int("entries", entries),
		log.Duration("duration", took),
	)
}

// flushLocked swaps in a fresh batch and queues the old one. Caller holds mu.
func (l *BatchingLogger) flushLocked() *domain.Batch {
	if l.current.Empty() {
		return nil
	}
	sealed := l.current
	l.current = domain.NewBatch(l.template)

	sealed.ID = l.opts.newID()
	sealed.SealedAt = l.opts.now()
	l.pending = append(l.pending, sealed)
	return sealed
}

func (l *BatchingLogger) notifyFlush(b *domain.Batch, reason ports.FlushReason) {
	if obs := l.opts.observer; obs != nil {
		obs.OnFlush(b, reason)
	}
	l.opts.logger.Debug("sealed batch",
		log.String("batch", b.ID),
		log.String("reason", string(reason)),
		log.Int("entries", b.Size()),
		log.Int("bytes", b.EstimatedSize),
	)
}

// Template returns a copy of the template shared by every batch.
func (l *BatchingLogger) Template() domain.Template {
	return l.template.Clone()
}

// Limit returns the configured size limit in bytes.
func (l *BatchingLogger) Limit() int {
	return l.limit
}

// Pending returns the number of sealed batches awaiting export.
func (l *BatchingLogger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// PendingBatches returns the sealed batches awaiting export, oldest first.
// The slice is a copy; the batches themselves must not be modified.
func (l *BatchingLogger) PendingBatches() []*domain.Batch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.Batch(nil), l.pending...)
}

// CurrentEntries returns the number of entries in the batch being filled.
func (l *BatchingLogger) CurrentEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Size()
}

// CurrentSize returns the running size estimate of the batch being filled.
func (l *BatchingLogger) CurrentSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.EstimatedSize
}
