package domain

import "errors"

// Domain errors represent error conditions in the meshlog domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("meshlog: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("meshlog: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("meshlog: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("meshlog: invalid configuration")

	// ErrUnknownExporter is returned when the configured exporter kind is not supported.
	ErrUnknownExporter = errors.New("meshlog: unknown exporter")

	// ErrInvalidRecord is returned when an ingested request record cannot be decoded.
	ErrInvalidRecord = errors.New("meshlog: invalid request record")
)
