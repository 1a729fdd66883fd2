package meshlog

import (
	"github.com/bft-labs/meshlog/internal/app"
	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
)

// Logger batches access log entries. See [New].
type Logger = app.BatchingLogger

// Option configures a Logger.
type Option = app.Option

// Data types shared with exporters.
type (
	NodeInfo          = domain.NodeInfo
	RequestInfo       = domain.RequestInfo
	AuthPolicy        = domain.AuthPolicy
	Batch             = domain.Batch
	LogEntry          = domain.LogEntry
	Template          = domain.Template
	MonitoredResource = domain.MonitoredResource
)

// Exporter receives sealed batches in flush order.
type Exporter = ports.Exporter

// ExporterFunc adapts a function to Exporter.
type ExporterFunc = ports.ExporterFunc

// Observer is notified of batching and export activity.
type Observer = ports.Observer

// FlushReason tells why a batch was sealed.
type FlushReason = ports.FlushReason

const (
	FlushSize   = ports.FlushSize
	FlushExport = ports.FlushExport
	FlushManual = ports.FlushManual
)

const (
	AuthPolicyUnspecified = domain.AuthPolicyUnspecified
	AuthPolicyNone        = domain.AuthPolicyNone
	AuthPolicyMutualTLS   = domain.AuthPolicyMutualTLS
)

// Platform metadata keys read from the local node.
const (
	GCPProjectKey     = domain.GCPProjectKey
	GCPClusterNameKey = domain.GCPClusterNameKey
	GCPLocationKey    = domain.GCPLocationKey
	GCPInstanceIDKey  = domain.GCPInstanceIDKey
)

// Options.
var (
	WithLogger      = app.WithLogger
	WithObserver    = app.WithObserver
	WithSizer       = app.WithSizer
	WithClock       = app.WithClock
	WithIDGenerator = app.WithIDGenerator
)

// New creates a Logger for the local node. A batch is sealed as soon as its
// estimated size exceeds sizeLimit bytes; a sizeLimit <= 0 seals a batch
// after every entry.
func New(local NodeInfo, exporter Exporter, sizeLimit int, opts ...Option) *Logger {
	return app.NewBatchingLogger(local, exporter, sizeLimit, opts...)
}

// EstimateSize returns the encoded size in bytes an entry contributes to a
// write request.
func EstimateSize(e *LogEntry) int {
	return app.EstimateSize(e)
}
