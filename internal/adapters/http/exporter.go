package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

const writeEntriesEndpoint = "/v2/entries:write"

// Config configures the HTTP exporter.
type Config struct {
	// ServiceURL is the base URL of the log ingestion service.
	ServiceURL string

	// AuthKey is sent as a bearer token when set.
	AuthKey string

	// Hostname identifies this agent in request headers.
	Hostname string
}

// Exporter implements ports.Exporter by POSTing each batch as a gzip
// compressed JSON write request.
type Exporter struct {
	client ports.HTTPClient
	cfg    Config
	logger log.Logger
}

// NewExporter creates a new HTTP exporter.
func NewExporter(client ports.HTTPClient, cfg Config, logger log.Logger) *Exporter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Exporter{client: client, cfg: cfg, logger: logger}
}

// Export sends every batch in order. A failed batch does not stop the
// remaining ones; all failures are joined into the returned error.
func (e *Exporter) Export(ctx context.Context, batches []*domain.Batch) error {
	var errs []error
	for _, b := range batches {
		if err := e.send(ctx, b); err != nil {
			e.logger.Debug("batch rejected", log.String("batch", b.ID), log.Err(err))
			errs = append(errs, fmt.Errorf("batch %s: %w", b.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Exporter) send(ctx context.Context, b *domain.Batch) error {
	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if err := json.NewEncoder(zw).Encode(b); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.ServiceURL+writeEntriesEndpoint, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if e.cfg.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.AuthKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("X-Batch-Id", b.ID)
	req.Header.Set("X-Entry-Count", strconv.Itoa(b.Size()))
	req.Header.Set("X-Agent-Hostname", e.cfg.Hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
