// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Exporter]: Delivers completed log batches to a remote sink
//   - [Observer]: Receives accumulation and export events (metrics)
//   - [RecordHandler]: Accepts request records produced by a source
//   - [StateRepository]: Persists and loads source read positions
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (HTTP, CloudWatch, NATS, Redis, files).
package ports
