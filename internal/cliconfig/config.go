package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/meshlog/internal/domain"
)

// DefaultServiceURL is the default endpoint of the http exporter.
const DefaultServiceURL = "https://logging.googleapis.com"

// Exporter kinds.
const (
	ExporterStdout     = "stdout"
	ExporterHTTP       = "http"
	ExporterCloudWatch = "cloudwatch"
	ExporterNATS       = "nats"
	ExporterRedis      = "redis"
)

// Config holds CLI configuration for meshlog.
type Config struct {
	NodeFile   string
	ListenAddr string
	SpoolFile  string
	StateDir   string

	ExportInterval time.Duration
	ExportTimeout  time.Duration
	HTTPTimeout    time.Duration

	// LogRequestSizeLimit is the estimated batch size in bytes above which
	// a batch is sealed. Zero or less seals a batch after every entry.
	LogRequestSizeLimit int
	MaxBodyBytes        int

	Exporter string

	ServiceURL string
	AuthKey    string

	CloudWatchLogGroup        string
	CloudWatchLogStream       string
	CloudWatchRegion          string
	CloudWatchEndpoint        string
	CloudWatchAccessKeyID     string
	CloudWatchSecretAccessKey string
	CloudWatchAutoCreate      bool

	NATSURL     string
	NATSSubject string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	RedisMaxLen   int

	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":9464",
		ExportInterval:      10 * time.Second,
		ExportTimeout:       30 * time.Second,
		HTTPTimeout:         15 * time.Second,
		LogRequestSizeLimit: 4 << 20, // 4MB
		MaxBodyBytes:        8 << 20,
		Exporter:            ExporterStdout,
		ServiceURL:          DefaultServiceURL,
		NATSURL:             "nats://127.0.0.1:4222",
		NATSSubject:         "meshlog.accesslog",
		RedisAddr:           "localhost:6379",
		RedisKey:            "meshlog:batches",
		LogLevel:            "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// Errors wrap domain.ErrInvalidConfig or domain.ErrUnknownExporter.
func (c *Config) Validate() error {
	if c.ListenAddr == "" && c.SpoolFile == "" {
		return invalid("one of listen-addr or spool-file is required")
	}
	if c.Once && c.SpoolFile == "" {
		return invalid("once requires spool-file")
	}

	if c.StateDir == "" && c.SpoolFile != "" {
		c.StateDir = filepath.Dir(c.SpoolFile)
	}

	if c.ExportInterval <= 0 {
		return invalid("export interval must be positive")
	}
	if c.ExportTimeout <= 0 {
		return invalid("export timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return invalid("http timeout must be positive")
	}

	c.Exporter = strings.ToLower(strings.TrimSpace(c.Exporter))
	switch c.Exporter {
	case "":
		c.Exporter = ExporterStdout
	case ExporterStdout:
	case ExporterHTTP:
		if c.ServiceURL == "" {
			c.ServiceURL = DefaultServiceURL
		}
		c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
	case ExporterCloudWatch:
		if c.CloudWatchLogGroup == "" || c.CloudWatchLogStream == "" || c.CloudWatchRegion == "" {
			return invalid("cloudwatch exporter requires log group, log stream and region")
		}
	case ExporterNATS:
		if c.NATSURL == "" || c.NATSSubject == "" {
			return invalid("nats exporter requires url and subject")
		}
	case ExporterRedis:
		if c.RedisAddr == "" || c.RedisKey == "" {
			return invalid("redis exporter requires addr and key")
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownExporter, c.Exporter)
	}

	return nil
}

// Masked returns a copy safe for logging, with secrets replaced.
func (c Config) Masked() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "*****"
		}
	}
	mask(&c.AuthKey)
	mask(&c.CloudWatchSecretAccessKey)
	mask(&c.RedisPassword)
	return c
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, msg)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setLimit sets an int value from a pointer if not nil and flag not changed.
// Unlike setInt, zero and negative values are applied.
func (s *configSetter) setLimit(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setLimitFromString parses a string to int and sets the destination,
// including zero and negative values.
func (s *configSetter) setLimitFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
