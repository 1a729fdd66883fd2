// Package nats exports access log batches as NATS messages.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/pkg/log"
)

// Message headers set on every published batch.
const (
	HeaderBatchID    = "Meshlog-Batch-Id"
	HeaderEntryCount = "Meshlog-Entry-Count"
)

// conn is the subset of *nats.Conn used by the exporter.
type conn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Exporter implements ports.Exporter by publishing one message per batch to
// a subject and flushing the connection once per export.
type Exporter struct {
	nc      conn
	subject string
	logger  log.Logger
}

// Connect dials the NATS server at url and returns an exporter publishing
// to subject.
func Connect(url, subject string, logger log.Logger) (*Exporter, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: nats subject is required", domain.ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	nc, err := nats.Connect(url,
		nats.Name("meshlog"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", log.Err(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", log.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("connected to nats", log.String("url", url), log.String("subject", subject))
	return newExporter(nc, subject, logger), nil
}

func newExporter(nc conn, subject string, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Exporter{nc: nc, subject: subject, logger: logger}
}

// Export publishes every batch, then waits for the server to acknowledge the
// flush so that a nil error means the messages left the client buffer.
func (e *Exporter) Export(ctx context.Context, batches []*domain.Batch) error {
	var errs []error
	for _, b := range batches {
		data, err := json.Marshal(domain.NewEnvelope(b))
		if err != nil {
			errs = append(errs, fmt.Errorf("batch %s: encode: %w", b.ID, err))
			continue
		}

		msg := nats.NewMsg(e.subject)
		msg.Data = data
		msg.Header.Set(HeaderBatchID, b.ID)
		msg.Header.Set(HeaderEntryCount, strconv.Itoa(b.Size()))
		if err := e.nc.PublishMsg(msg); err != nil {
			errs = append(errs, fmt.Errorf("batch %s: publish: %w", b.ID, err))
		}
	}

	if err := e.nc.FlushWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	return errors.Join(errs...)
}

// Close closes the NATS connection.
func (e *Exporter) Close() error {
	e.logger.Info("closing nats connection")
	e.nc.Close()
	return nil
}
