// Package cloudwatch exports access log batches to AWS CloudWatch Logs.
package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/pkg/log"
)

// CloudWatch Logs limits.
const (
	maxEventsPerRequest = 10000
	maxRequestBytes     = 1048576
	maxEventBytes       = 256000
	// each event is charged its message length plus this overhead
	eventOverheadBytes = 26
)

// Config configures the CloudWatch exporter.
type Config struct {
	LogGroup        string
	LogStream       string
	Region          string
	Endpoint        string // optional override, e.g. LocalStack
	AccessKeyID     string
	SecretAccessKey string
	AutoCreate      bool // create the group and stream if missing
}

// logsAPI is the subset of the CloudWatch Logs client used here.
type logsAPI interface {
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// Exporter implements ports.Exporter with PutLogEvents. Every entry becomes
// one JSON event carrying the batch template.
type Exporter struct {
	client logsAPI
	cfg    Config
	logger log.Logger
}

// NewExporter builds an AWS client from cfg and, with AutoCreate, makes sure
// the log group and stream exist.
func NewExporter(ctx context.Context, cfg Config, logger log.Logger) (*Exporter, error) {
	if cfg.LogGroup == "" {
		return nil, fmt.Errorf("%w: cloudwatch log group is required", domain.ErrInvalidConfig)
	}
	if cfg.LogStream == "" {
		return nil, fmt.Errorf("%w: cloudwatch log stream is required", domain.ErrInvalidConfig)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: cloudwatch region is required", domain.ErrInvalidConfig)
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build AWS config: %w", err)
	}

	e := newExporter(cloudwatchlogs.NewFromConfig(awsCfg), cfg, logger)
	if cfg.AutoCreate {
		if err := e.ensureGroupAndStream(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func newExporter(client logsAPI, cfg Config, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Exporter{client: client, cfg: cfg, logger: logger}
}

func buildAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg, nil
}

// Export publishes each batch in order. Failures are collected per batch.
func (e *Exporter) Export(ctx context.Context, batches []*domain.Batch) error {
	var errs []error
	for _, b := range batches {
		if err := e.exportBatch(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("batch %s: %w", b.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Exporter) exportBatch(ctx context.Context, b *domain.Batch) error {
	events, err := toEvents(b)
	if err != nil {
		return err
	}
	for _, chunk := range chunkEvents(events) {
		_, err := e.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(e.cfg.LogGroup),
			LogStreamName: aws.String(e.cfg.LogStream),
			LogEvents:     chunk,
		})
		if err != nil {
			return fmt.Errorf("put log events: %w", err)
		}
	}
	return nil
}

// event is the JSON message of one CloudWatch log event.
type event struct {
	LogName  string                   `json:"logName"`
	Resource domain.MonitoredResource `json:"resource"`
	BatchID  string                   `json:"batchId,omitempty"`
	*domain.LogEntry
}

// toEvents converts a batch into events sorted by timestamp, as PutLogEvents
// requires. Template labels are merged under the entry labels.
func toEvents(b *domain.Batch) ([]types.InputLogEvent, error) {
	events := make([]types.InputLogEvent, 0, len(b.Entries))
	for i := range b.Entries {
		entry := b.Entries[i]
		labels := maps.Clone(b.Labels)
		if labels == nil {
			labels = make(map[string]string, len(entry.Labels))
		}
		maps.Copy(labels, entry.Labels)
		entry.Labels = labels

		msg, err := json.Marshal(event{
			LogName:  b.LogName,
			Resource: b.Resource,
			BatchID:  b.ID,
			LogEntry: &entry,
		})
		if err != nil {
			return nil, fmt.Errorf("encode entry: %w", err)
		}
		message := string(msg)
		if len(message) > maxEventBytes {
			message = truncate(message, maxEventBytes)
		}

		events = append(events, types.InputLogEvent{
			Message:   aws.String(message),
			Timestamp: aws.Int64(entry.Timestamp.Time().UnixMilli()),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return *events[i].Timestamp < *events[j].Timestamp
	})
	return events, nil
}

// chunkEvents splits events so that no request exceeds the per-call event
// count or byte limits.
func chunkEvents(events []types.InputLogEvent) [][]types.InputLogEvent {
	var chunks [][]types.InputLogEvent
	start, bytes := 0, 0
	for i, ev := range events {
		size := len(aws.ToString(ev.Message)) + eventOverheadBytes
		if i > start && (i-start == maxEventsPerRequest || bytes+size > maxRequestBytes) {
			chunks = append(chunks, events[start:i])
			start, bytes = i, 0
		}
		bytes += size
	}
	if start < len(events) {
		chunks = append(chunks, events[start:])
	}
	return chunks
}

func (e *Exporter) ensureGroupAndStream(ctx context.Context) error {
	_, err := e.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(e.cfg.LogGroup),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("create log group: %w", err)
	}

	_, err = e.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(e.cfg.LogGroup),
		LogStreamName: aws.String(e.cfg.LogStream),
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("create log stream: %w", err)
	}

	e.logger.Info("cloudwatch log stream ready",
		log.String("group", e.cfg.LogGroup),
		log.String("stream", e.cfg.LogStream),
	)
	return nil
}

func alreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}

// truncate shortens s to at most n bytes, ending in "...", without
// splitting a multi-byte rune.
func truncate(s string, n int) string {
	cut := n - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
