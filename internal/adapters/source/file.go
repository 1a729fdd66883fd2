package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/valyala/fastjson"

	"github.com/bft-labs/meshlog/internal/domain"
	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

// DefaultPollInterval is how often a followed spool file is re-checked when
// no filesystem event arrives.
const DefaultPollInterval = 2 * time.Second

// FileConfig configures a FileSource.
type FileConfig struct {
	// Path is the NDJSON spool file, one record per line.
	Path string

	// Follow keeps reading appended lines until the context is canceled.
	// Without it Run returns at end of file.
	Follow bool

	// PollInterval is the fallback re-check period while following.
	PollInterval time.Duration
}

// FileSource tails an NDJSON spool file of request records. The read offset
// is persisted through a ports.StateRepository so that a restart resumes
// after the last consumed line.
type FileSource struct {
	cfg    FileConfig
	state  ports.StateRepository
	logger log.Logger
	parser fastjson.Parser
}

// NewFileSource creates a spool file source.
func NewFileSource(cfg FileConfig, state ports.StateRepository, logger log.Logger) *FileSource {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &FileSource{cfg: cfg, state: state, logger: logger}
}

// Name implements ports.RecordSource.
func (s *FileSource) Name() string { return "file" }

// Run implements ports.RecordSource.
func (s *FileSource) Run(ctx context.Context, h ports.RecordHandler) error {
	st, err := s.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load spool offset: %w", err)
	}
	if st.Path != s.cfg.Path {
		if !st.IsEmpty() {
			s.logger.Info("spool file changed, starting from the beginning",
				log.String("previous", st.Path),
				log.String("path", s.cfg.Path),
			)
		}
		st.Reset(s.cfg.Path)
	}

	if !s.cfg.Follow {
		if err := s.drainFile(&st, h, true); err != nil {
			return err
		}
		return s.save(ctx, &st)
	}
	return s.follow(ctx, &st, h)
}

func (s *FileSource) follow(ctx context.Context, st *domain.SourceState, h ports.RecordHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so rotation and late creation are seen
	if err := watcher.Add(filepath.Dir(s.cfg.Path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.cfg.Path), err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	check := func() error {
		offset, records := st.Offset, st.Records
		if err := s.drainFile(st, h, false); err != nil {
			return err
		}
		if st.Offset == offset && st.Records == records {
			return nil
		}
		return s.save(ctx, st)
	}
	if err := check(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = s.save(context.Background(), st)
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.cfg.Path) {
				continue
			}
			if event.Op&fsnotify.Create != 0 && st.Offset > 0 {
				s.logger.Info("spool file recreated", log.String("path", s.cfg.Path))
				st.Reset(s.cfg.Path)
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := check(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("spool watcher error", log.Err(err))

		case <-ticker.C:
			if err := check(); err != nil {
				return err
			}
		}
	}
}

// drainFile consumes every complete line after st.Offset. When final is set
// a trailing line without a newline is consumed too. A missing file is only
// an error when not following.
func (s *FileSource) drainFile(st *domain.SourceState, h ports.RecordHandler, final bool) error {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !final {
			return nil
		}
		return fmt.Errorf("open spool: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat spool: %w", err)
	}
	if info.Size() < st.Offset {
		s.logger.Warn("spool file truncated, starting from the beginning",
			log.Int64("size", info.Size()),
			log.Int64("offset", st.Offset),
		)
		st.Reset(s.cfg.Path)
	}
	if _, err := f.Seek(st.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek spool: %w", err)
	}

	r := bufio.NewReaderSize(f, 64<<10)
	for {
		line, err := r.ReadBytes('\n')
		complete := len(line) > 0 && line[len(line)-1] == '\n'
		if complete || (final && len(line) > 0 && err == io.EOF) {
			s.handleLine(line, st, h)
			st.Advance(int64(len(line)))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read spool: %w", err)
		}
	}
}

func (s *FileSource) handleLine(line []byte, st *domain.SourceState, h ports.RecordHandler) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	v, err := s.parser.ParseBytes(line)
	if err == nil {
		var rec domain.Record
		if rec, err = DecodeRecord(v); err == nil {
			h.HandleRecord(rec)
			return
		}
	}
	s.logger.Warn("skipping malformed spool line",
		log.Err(err),
		log.Int64("offset", st.Offset),
	)
}

func (s *FileSource) save(ctx context.Context, st *domain.SourceState) error {
	st.UpdatedAt = time.Now()
	if err := s.state.Save(ctx, *st); err != nil {
		return fmt.Errorf("save spool offset: %w", err)
	}
	return nil
}
