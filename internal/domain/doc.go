// Package domain contains the core domain entities and value objects for meshlog.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [NodeInfo]: Identity and platform metadata of a mesh workload
//   - [RequestInfo]: Telemetry collected for one completed request
//   - [LogEntry]: A structured access log entry built from a request
//   - [Template]: Log name, monitored resource and common labels shared by a batch
//   - [Batch]: A size-bounded group of entries sharing one template
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
