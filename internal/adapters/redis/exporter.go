// Package redis exports access log batches onto a Redis list.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/pkg/log"
)

// Config configures the Redis exporter.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Key is the list the batches are appended to.
	Key string

	// MaxLen trims the list to its newest MaxLen batches after each export.
	// Zero keeps everything.
	MaxLen int64
}

// lists is the subset of the Redis client used by the exporter.
type lists interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

// Exporter implements ports.Exporter by RPUSHing batch envelopes.
type Exporter struct {
	client lists
	cfg    Config
	logger log.Logger
	closer func() error
}

// NewExporter connects to Redis and verifies the connection.
func NewExporter(ctx context.Context, cfg Config, logger log.Logger) (*Exporter, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: redis key is required", domain.ErrInvalidConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	e := newExporter(client, cfg, logger)
	e.closer = client.Close
	return e, nil
}

func newExporter(client lists, cfg Config, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Exporter{client: client, cfg: cfg, logger: logger}
}

// Export appends all batches with a single RPUSH, so they land on the list
// together and in flush order.
func (e *Exporter) Export(ctx context.Context, batches []*domain.Batch) error {
	values := make([]interface{}, 0, len(batches))
	for _, b := range batches {
		data, err := json.Marshal(domain.NewEnvelope(b))
		if err != nil {
			return fmt.Errorf("batch %s: encode: %w", b.ID, err)
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	length, err := e.client.RPush(ctx, e.cfg.Key, values...).Result()
	if err != nil {
		return fmt.Errorf("rpush %s: %w", e.cfg.Key, err)
	}

	if e.cfg.MaxLen > 0 && length > e.cfg.MaxLen {
		if err := e.client.LTrim(ctx, e.cfg.Key, -e.cfg.MaxLen, -1).Err(); err != nil {
			// the batches were delivered; trimming is best effort
			e.logger.Warn("redis list trim failed", log.String("key", e.cfg.Key), log.Err(err))
		}
	}
	return nil
}

// Close releases the client connection pool.
func (e *Exporter) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}
