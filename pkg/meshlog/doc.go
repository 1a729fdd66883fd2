// Package meshlog provides an embeddable access log batcher for service
// mesh proxies.
//
// A [Logger] turns completed requests into structured log entries and groups
// them into write batches whose estimated size stays within a request limit.
// Every batch carries the same log name, monitored resource and common labels,
// derived once from the local node. Sealed batches wait in a queue until
// [Logger.ExportPending] hands them to an [Exporter] in one call.
//
// # Basic Usage
//
//	local := meshlog.NodeInfo{
//	    Name:             "reviews-v1-7d8f",
//	    WorkloadName:     "reviews-v1",
//	    Namespace:        "bookinfo",
//	    PlatformMetadata: map[string]string{meshlog.GCPProjectKey: "my-project"},
//	}
//
//	logger := meshlog.New(local, exporter, 4<<20)
//
//	// on every completed request
//	logger.AddEntry(req, peer)
//
//	// periodically, and once more on shutdown
//	logger.ExportPending(ctx)
//
// # Exporters
//
// Any type with an Export(ctx, []*Batch) error method can receive batches;
// [ExporterFunc] adapts a plain function. Export failures are logged and
// the affected batches are dropped.
//
// # Thread Safety
//
// AddEntry, Flush and ExportPending may be called from multiple goroutines.
// Exports never run concurrently with each other, and the exporter is
// called without holding the lock used by AddEntry.
package meshlog
