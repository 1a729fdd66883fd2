package cliconfig

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. An empty path means
// ./.env, which is skipped silently when absent.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
		if !FileExists(path) {
			return nil
		}
	}
	return godotenv.Load(path)
}

// ApplyEnvConfig applies MESHLOG_* environment variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("node-file", os.Getenv("MESHLOG_NODE_FILE"), &cfg.NodeFile)
	s.setString("listen-addr", os.Getenv("MESHLOG_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("spool-file", os.Getenv("MESHLOG_SPOOL_FILE"), &cfg.SpoolFile)
	s.setString("state-dir", os.Getenv("MESHLOG_STATE_DIR"), &cfg.StateDir)
	s.setString("exporter", os.Getenv("MESHLOG_EXPORTER"), &cfg.Exporter)
	s.setString("log-level", os.Getenv("MESHLOG_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("export-interval", os.Getenv("MESHLOG_EXPORT_INTERVAL"), &cfg.ExportInterval); err != nil {
		return err
	}
	if err := s.setDuration("export-timeout", os.Getenv("MESHLOG_EXPORT_TIMEOUT"), &cfg.ExportTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("MESHLOG_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setLimitFromString("size-limit", os.Getenv("MESHLOG_LOG_REQUEST_SIZE_LIMIT"), &cfg.LogRequestSizeLimit); err != nil {
		return err
	}
	if err := s.setIntFromString("max-body-bytes", os.Getenv("MESHLOG_MAX_BODY_BYTES"), &cfg.MaxBodyBytes); err != nil {
		return err
	}
	s.setBoolFromString("once", os.Getenv("MESHLOG_ONCE"), &cfg.Once)

	s.setString("service-url", os.Getenv("MESHLOG_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("MESHLOG_AUTH_KEY"), &cfg.AuthKey)

	s.setString("cloudwatch-log-group", os.Getenv("MESHLOG_CLOUDWATCH_LOG_GROUP"), &cfg.CloudWatchLogGroup)
	s.setString("cloudwatch-log-stream", os.Getenv("MESHLOG_CLOUDWATCH_LOG_STREAM"), &cfg.CloudWatchLogStream)
	s.setString("cloudwatch-region", os.Getenv("MESHLOG_CLOUDWATCH_REGION"), &cfg.CloudWatchRegion)
	s.setString("cloudwatch-endpoint", os.Getenv("MESHLOG_CLOUDWATCH_ENDPOINT"), &cfg.CloudWatchEndpoint)
	s.setString("cloudwatch-access-key-id", os.Getenv("MESHLOG_CLOUDWATCH_ACCESS_KEY_ID"), &cfg.CloudWatchAccessKeyID)
	s.setString("cloudwatch-secret-access-key", os.Getenv("MESHLOG_CLOUDWATCH_SECRET_ACCESS_KEY"), &cfg.CloudWatchSecretAccessKey)
	s.setBoolFromString("cloudwatch-auto-create", os.Getenv("MESHLOG_CLOUDWATCH_AUTO_CREATE"), &cfg.CloudWatchAutoCreate)

	s.setString("nats-url", os.Getenv("MESHLOG_NATS_URL"), &cfg.NATSURL)
	s.setString("nats-subject", os.Getenv("MESHLOG_NATS_SUBJECT"), &cfg.NATSSubject)

	s.setString("redis-addr", os.Getenv("MESHLOG_REDIS_ADDR"), &cfg.RedisAddr)
	s.setString("redis-password", os.Getenv("MESHLOG_REDIS_PASSWORD"), &cfg.RedisPassword)
	if err := s.setIntFromString("redis-db", os.Getenv("MESHLOG_REDIS_DB"), &cfg.RedisDB); err != nil {
		return err
	}
	s.setString("redis-key", os.Getenv("MESHLOG_REDIS_KEY"), &cfg.RedisKey)
	if err := s.setIntFromString("redis-max-len", os.Getenv("MESHLOG_REDIS_MAX_LEN"), &cfg.RedisMaxLen); err != nil {
		return err
	}

	return nil
}
