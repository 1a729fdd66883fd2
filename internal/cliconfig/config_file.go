package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly. Exporter settings live in their own tables.
type FileConfig struct {
	NodeFile            string `toml:"node_file"`
	ListenAddr          string `toml:"listen_addr"`
	SpoolFile           string `toml:"spool_file"`
	StateDir            string `toml:"state_dir"`
	ExportInterval      string `toml:"export_interval"`
	ExportTimeout       string `toml:"export_timeout"`
	HTTPTimeout         string `toml:"http_timeout"`
	LogRequestSizeLimit *int   `toml:"log_request_size_limit"`
	MaxBodyBytes        int    `toml:"max_body_bytes"`
	Exporter            string `toml:"exporter"`
	LogLevel            string `toml:"log_level"`
	Once                *bool  `toml:"once"`

	HTTP struct {
		ServiceURL string `toml:"service_url"`
		AuthKey    string `toml:"auth_key"`
	} `toml:"http"`

	CloudWatch struct {
		LogGroup        string `toml:"log_group"`
		LogStream       string `toml:"log_stream"`
		Region          string `toml:"region"`
		Endpoint        string `toml:"endpoint"`
		AccessKeyID     string `toml:"access_key_id"`
		SecretAccessKey string `toml:"secret_access_key"`
		AutoCreate      *bool  `toml:"auto_create"`
	} `toml:"cloudwatch"`

	NATS struct {
		URL     string `toml:"url"`
		Subject string `toml:"subject"`
	} `toml:"nats"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Key      string `toml:"key"`
		MaxLen   int    `toml:"max_len"`
	} `toml:"redis"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.meshlog/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".meshlog", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("node-file", fc.NodeFile, &cfg.NodeFile)
	s.setString("listen-addr", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("spool-file", fc.SpoolFile, &cfg.SpoolFile)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("exporter", fc.Exporter, &cfg.Exporter)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("export-interval", fc.ExportInterval, &cfg.ExportInterval); err != nil {
		return err
	}
	if err := s.setDuration("export-timeout", fc.ExportTimeout, &cfg.ExportTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setLimit("size-limit", fc.LogRequestSizeLimit, &cfg.LogRequestSizeLimit)
	s.setInt("max-body-bytes", fc.MaxBodyBytes, &cfg.MaxBodyBytes)
	s.setBool("once", fc.Once, &cfg.Once)

	s.setString("service-url", fc.HTTP.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.HTTP.AuthKey, &cfg.AuthKey)

	s.setString("cloudwatch-log-group", fc.CloudWatch.LogGroup, &cfg.CloudWatchLogGroup)
	s.setString("cloudwatch-log-stream", fc.CloudWatch.LogStream, &cfg.CloudWatchLogStream)
	s.setString("cloudwatch-region", fc.CloudWatch.Region, &cfg.CloudWatchRegion)
	s.setString("cloudwatch-endpoint", fc.CloudWatch.Endpoint, &cfg.CloudWatchEndpoint)
	s.setString("cloudwatch-access-key-id", fc.CloudWatch.AccessKeyID, &cfg.CloudWatchAccessKeyID)
	s.setString("cloudwatch-secret-access-key", fc.CloudWatch.SecretAccessKey, &cfg.CloudWatchSecretAccessKey)
	s.setBool("cloudwatch-auto-create", fc.CloudWatch.AutoCreate, &cfg.CloudWatchAutoCreate)

	s.setString("nats-url", fc.NATS.URL, &cfg.NATSURL)
	s.setString("nats-subject", fc.NATS.Subject, &cfg.NATSSubject)

	s.setString("redis-addr", fc.Redis.Addr, &cfg.RedisAddr)
	s.setString("redis-password", fc.Redis.Password, &cfg.RedisPassword)
	s.setInt("redis-db", fc.Redis.DB, &cfg.RedisDB)
	s.setString("redis-key", fc.Redis.Key, &cfg.RedisKey)
	s.setInt("redis-max-len", fc.Redis.MaxLen, &cfg.RedisMaxLen)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
