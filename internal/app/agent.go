package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

// AgentConfig contains configuration for the export loop.
type AgentConfig struct {
	// ExportInterval is the period of timer-driven ExportPending calls.
	ExportInterval time.Duration

	// ExportTimeout bounds a single ExportPending call.
	ExportTimeout time.Duration

	// Once stops the agent after every source has drained its input.
	Once bool
}

// Agent drives a BatchingLogger: it feeds it records from sources, exports on
// a timer and performs a final export on shutdown.
type Agent struct {
	config    AgentConfig
	batcher   *BatchingLogger
	sources   []ports.RecordSource
	lifecycle *Lifecycle
	logger    log.Logger

	mu   sync.Mutex
	done chan struct{}
	err  error
}

// NewAgent creates a new agent with the given dependencies.
func NewAgent(config AgentConfig, batcher *BatchingLogger, sources []ports.RecordSource, logger log.Logger, emitter EventEmitter) *Agent {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if config.ExportInterval <= 0 {
		config.ExportInterval = 10 * time.Second
	}
	if config.ExportTimeout <= 0 {
		config.ExportTimeout = 30 * time.Second
	}
	return &Agent{
		config:    config,
		batcher:   batcher,
		sources:   sources,
		lifecycle: NewLifecycle(logger, emitter),
		logger:    logger,
	}
}

// HandleRecord implements ports.RecordHandler.
func (a *Agent) HandleRecord(rec domain.Record) {
	a.batcher.AddEntry(rec.Request, rec.Peer)
}

// Status returns the current lifecycle state.
func (a *Agent) Status() State {
	return a.lifecycle.State()
}

// Done is closed once the agent has stopped or crashed after a Start.
func (a *Agent) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Err returns the error that crashed the agent, if any.
func (a *Agent) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Start launches the sources and the export loop in the background.
func (a *Agent) Start(ctx context.Context) error {
	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := a.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.lifecycle.SetCancel(cancel)
	if err := a.lifecycle.TransitionTo(StateRunning, "export loop started"); err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.done = done
	a.err = nil
	a.mu.Unlock()

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()
		defer close(done)
		defer cancel()

		err := a.run(runCtx, cancel)
		a.finalExport()

		if err != nil {
			a.mu.Lock()
			a.err = err
			a.mu.Unlock()
			_ = a.lifecycle.TransitionTo(StateCrashed, err.Error())
			return
		}
		if a.lifecycle.State() == StateRunning {
			_ = a.lifecycle.TransitionTo(StateStopping, "sources drained")
		}
		_ = a.lifecycle.TransitionTo(StateStopped, "export loop finished")
	}()

	return nil
}

// Stop cancels the sources, waits for the export loop to perform its final
// export, and returns once the agent has stopped.
func (a *Agent) Stop() error {
	if !a.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := a.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		return err
	}
	a.lifecycle.Cancel()
	return a.lifecycle.WaitWithTimeout(ShutdownTimeout)
}

// run blocks until ctx is canceled, a source fails, or (in once mode) every
// source has drained.
func (a *Agent) run(ctx context.Context, cancel context.CancelFunc) error {
	errCh := make(chan error, len(a.sources))
	var sources sync.WaitGroup
	for _, src := range a.sources {
		sources.Add(1)
		go func(src ports.RecordSource) {
			defer sources.Done()
			a.logger.Info("record source started", log.String("source", src.Name()))
			err := src.Run(ctx, a)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("source %s: %w", src.Name(), err)
				return
			}
			a.logger.Info("record source finished", log.String("source", src.Name()))
		}(src)
	}
	defer sources.Wait()

	drained := make(chan struct{})
	go func() {
		sources.Wait()
		close(drained)
	}()

	ticker := time.NewTicker(a.config.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			a.logger.Error("record source failed", log.Err(err))
			cancel()
			return err
		case <-drained:
			drained = nil
			select {
			case err := <-errCh:
				a.logger.Error("record source failed", log.Err(err))
				return err
			default:
			}
			if a.config.Once {
				cancel()
				return nil
			}
		case <-ticker.C:
			a.export(ctx)
		}
	}
}

func (a *Agent) export(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.config.ExportTimeout)
	defer cancel()
	a.batcher.ExportPending(ctx)
}

// finalExport runs after cancellation so it needs its own context.
func (a *Agent) finalExport() {
	a.export(context.Background())
}
