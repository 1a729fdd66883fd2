package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

// Option configures optional behavior of a BatchingLogger.
type Option func(*options)

type options struct {
	logger   log.Logger
	observer ports.Observer
	sizer    func(*domain.LogEntry) int
	now      func() time.Time
	newID    func() string
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
		sizer:  EstimateSize,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithLogger sets the logger used for flush and export messages.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers an observer for batching and export events.
func WithObserver(observer ports.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithSizer replaces the entry size estimator. The estimator must be cheap
// and consistent; results below 1 are counted as 1.
func WithSizer(sizer func(*domain.LogEntry) int) Option {
	return func(o *options) {
		if sizer != nil {
			o.sizer = sizer
		}
	}
}

// WithClock sets the time source used to stamp sealed batches and measure
// export duration.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the function that names sealed batches.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}
