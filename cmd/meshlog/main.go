package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/meshlog/internal/adapters/cloudwatch"
	"github.com/bft-labs/meshlog/internal/adapters/fs"
	httpexp "github.com/bft-labs/meshlog/internal/adapters/http"
	natsexp "github.com/bft-labs/meshlog/internal/adapters/nats"
	redisexp "github.com/bft-labs/meshlog/internal/adapters/redis"
	"github.com/bft-labs/meshlog/internal/adapters/source"
	"github.com/bft-labs/meshlog/internal/adapters/stream"
	"github.com/bft-labs/meshlog/internal/app"
	"github.com/bft-labs/meshlog/internal/cliconfig"
	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/metrics"
	"github.com/bft-labs/meshlog/internal/ports"
	mlog "github.com/bft-labs/meshlog/pkg/log"
)

const helpBanner = `
                    _     _
 _ __ ___   ___ ___| |__ | | ___   __ _
| '_ ` + "`" + ` _ \ / _ \ __| '_ \| |/ _ \ / _` + "`" + ` |
| | | | | |  __\__ \ | | | | (_) | (_| |
|_| |_| |_|\___|___/_| |_|_|\___/ \__, |
                                  |___/
`

const helpDescription = `
Batch service-mesh access logs into size-bounded write requests and ship them.

Highlights:
  - Accepts request records over HTTP or by tailing an NDJSON spool file.
  - Seals a batch as soon as its estimated size exceeds the request limit.
  - Exports on a timer to stdout, an HTTP logging endpoint, CloudWatch Logs, NATS or Redis.
  - Configure via file, .env, environment (MESHLOG_*) or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  meshlog --node-file /etc/meshlog/node.json --exporter http --auth-key <token>
  meshlog --spool-file /var/spool/mesh/requests.ndjson --once
  meshlog --config $HOME/.meshlog/config.toml --exporter nats --nats-subject mesh.accesslog
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath, envPath string

	log := mlog.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	root := &cobra.Command{
		Use:          "meshlog",
		Short:        "Batch service-mesh access logs and ship them",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// .env only fills variables that are not already set; MESHLOG_*
			// then overrides the file but not explicit flags.
			if err := cliconfig.LoadDotEnv(envPath); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			log = mlog.NewConsoleLogger(os.Stderr, cfg.LogLevel)

			node, err := cliconfig.LoadNodeInfo(cfg.NodeFile)
			if err != nil {
				return err
			}

			log.Info().Interface("config", cfg.Masked()).Msg("configuration")
			log.Info().Str("node", node.Name).Str("workload", node.WorkloadName).Str("namespace", node.Namespace).Msg("local node")

			return run(cmd.Context(), cfg, node, log)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.meshlog/config.toml)")
	root.Flags().StringVar(&envPath, "env-file", "", "path to a .env file (default: ./.env if present)")
	root.Flags().StringVar(&cfg.NodeFile, "node-file", cfg.NodeFile, "JSON or TOML file describing the local node")
	root.Flags().StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "address for record ingest, /metrics and /healthz (empty disables)")
	root.Flags().StringVar(&cfg.SpoolFile, "spool-file", cfg.SpoolFile, "NDJSON spool file of request records to tail")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for the spool offset (defaults to the spool file directory)")
	root.Flags().StringVar(&cfg.Exporter, "exporter", cfg.Exporter, "exporter: stdout, http, cloudwatch, nats or redis")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	root.Flags().DurationVar(&cfg.ExportInterval, "export-interval", cfg.ExportInterval, "interval between timer driven exports")
	root.Flags().DurationVar(&cfg.ExportTimeout, "export-timeout", cfg.ExportTimeout, "deadline for one export")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP client timeout")
	root.Flags().IntVar(&cfg.LogRequestSizeLimit, "size-limit", cfg.LogRequestSizeLimit, "estimated batch size in bytes above which a batch is sealed (<= 0 seals after every entry)")
	root.Flags().IntVar(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "maximum ingest request body size")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "process the spool file to its end, export and exit")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, fmt.Sprintf("base URL of the http exporter (defaults to %s)", cliconfig.DefaultServiceURL))
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the http exporter")

	root.Flags().StringVar(&cfg.CloudWatchLogGroup, "cloudwatch-log-group", cfg.CloudWatchLogGroup, "CloudWatch Logs group")
	root.Flags().StringVar(&cfg.CloudWatchLogStream, "cloudwatch-log-stream", cfg.CloudWatchLogStream, "CloudWatch Logs stream")
	root.Flags().StringVar(&cfg.CloudWatchRegion, "cloudwatch-region", cfg.CloudWatchRegion, "AWS region")
	root.Flags().StringVar(&cfg.CloudWatchEndpoint, "cloudwatch-endpoint", cfg.CloudWatchEndpoint, "CloudWatch Logs endpoint override")
	root.Flags().StringVar(&cfg.CloudWatchAccessKeyID, "cloudwatch-access-key-id", cfg.CloudWatchAccessKeyID, "static AWS access key id (default credential chain if empty)")
	root.Flags().StringVar(&cfg.CloudWatchSecretAccessKey, "cloudwatch-secret-access-key", cfg.CloudWatchSecretAccessKey, "static AWS secret access key")
	root.Flags().BoolVar(&cfg.CloudWatchAutoCreate, "cloudwatch-auto-create", cfg.CloudWatchAutoCreate, "create the log group and stream if missing")

	root.Flags().StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL")
	root.Flags().StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "NATS subject batches are published to")

	root.Flags().StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	root.Flags().StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	root.Flags().IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database")
	root.Flags().StringVar(&cfg.RedisKey, "redis-key", cfg.RedisKey, "Redis list batches are appended to")
	root.Flags().IntVar(&cfg.RedisMaxLen, "redis-max-len", cfg.RedisMaxLen, "trim the Redis list to this many batches (0 keeps all)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("meshlog")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, node domain.NodeInfo, log zerolog.Logger) error {
	logger := mlog.NewZerologAdapterWithLogger(log)

	exporter, closeExporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}
	defer closeExporter()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	batcher := app.NewBatchingLogger(node, exporter, cfg.LogRequestSizeLimit,
		app.WithLogger(logger),
		app.WithObserver(m),
	)
	m.WatchQueue(batcher)

	var sources []ports.RecordSource
	// Once mode ends when the spool file is drained, so it takes no ingest.
	var ingest *source.HTTPSource
	if cfg.ListenAddr != "" && !cfg.Once {
		ingest = source.NewHTTPSource(mlog.With(logger, mlog.String("source", "http")), int64(cfg.MaxBodyBytes))
		sources = append(sources, ingest)
	}
	if cfg.SpoolFile != "" {
		sources = append(sources, source.NewFileSource(source.FileConfig{
			Path:   cfg.SpoolFile,
			Follow: !cfg.Once,
		}, fs.NewStateFileRepository(cfg.StateDir), mlog.With(logger, mlog.String("source", "file"))))
	}

	agent := app.NewAgent(app.AgentConfig{
		ExportInterval: cfg.ExportInterval,
		ExportTimeout:  cfg.ExportTimeout,
		Once:           cfg.Once,
	}, batcher, sources, logger, m)

	var srv *http.Server
	if ingest != nil {
		mux := http.NewServeMux()
		mux.Handle(source.IngestPath, m.Middleware(ingest))
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/healthz", metrics.HealthHandler(agent.Status))
		srv = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	srvErr := make(chan error, 1)
	if srv != nil {
		go func() {
			log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvErr <- err
			}
		}()
	}

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
	case err := <-srvErr:
		log.Error().Err(err).Msg("http server failed")
		runErr = err
	case <-agent.Done():
		if agent.Status() == app.StateCrashed {
			log.Error().Err(agent.Err()).Msg("meshlog crashed")
			runErr = agent.Err()
		}
	}

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
		stop()
	}

	if err := agent.Stop(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return fmt.Errorf("stop agent: %w", err)
	}
	return runErr
}

// newExporter builds the configured exporter and a function that releases
// its connection.
func newExporter(ctx context.Context, cfg cliconfig.Config, logger mlog.Logger) (ports.Exporter, func(), error) {
	noop := func() {}
	switch cfg.Exporter {
	case cliconfig.ExporterHTTP:
		host, _ := os.Hostname()
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return httpexp.NewExporter(client, httpexp.Config{
			ServiceURL: cfg.ServiceURL,
			AuthKey:    cfg.AuthKey,
			Hostname:   host,
		}, logger), noop, nil

	case cliconfig.ExporterCloudWatch:
		e, err := cloudwatch.NewExporter(ctx, cloudwatch.Config{
			LogGroup:        cfg.CloudWatchLogGroup,
			LogStream:       cfg.CloudWatchLogStream,
			Region:          cfg.CloudWatchRegion,
			Endpoint:        cfg.CloudWatchEndpoint,
			AccessKeyID:     cfg.CloudWatchAccessKeyID,
			SecretAccessKey: cfg.CloudWatchSecretAccessKey,
			AutoCreate:      cfg.CloudWatchAutoCreate,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return e, noop, nil

	case cliconfig.ExporterNATS:
		e, err := natsexp.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return nil, nil, err
		}
		return e, func() { _ = e.Close() }, nil

	case cliconfig.ExporterRedis:
		e, err := redisexp.NewExporter(ctx, redisexp.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
			MaxLen:   int64(cfg.RedisMaxLen),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return e, func() { _ = e.Close() }, nil

	default:
		return stream.NewExporter(os.Stdout), noop, nil
	}
}
