package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/valyala/fastjson"

	"github.com/bft-labs/meshlog/internal/ports"
	"github.com/bft-labs/meshlog/pkg/log"
)

// IngestPath is the route served by HTTPSource.
const IngestPath = "/v1/requests"

// DefaultMaxBodyBytes bounds one ingest request body.
const DefaultMaxBodyBytes = 8 << 20

// HTTPSource accepts request records over HTTP. It is a ports.RecordSource:
// records are only accepted while Run is active, so the handler can be
// mounted before the agent starts.
type HTTPSource struct {
	logger  log.Logger
	maxBody int64
	parser  fastjson.ParserPool

	mu      sync.RWMutex
	handler ports.RecordHandler
}

// NewHTTPSource creates an ingest source. maxBody <= 0 selects
// DefaultMaxBodyBytes.
func NewHTTPSource(logger log.Logger, maxBody int64) *HTTPSource {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &HTTPSource{logger: logger, maxBody: maxBody}
}

// Name implements ports.RecordSource.
func (s *HTTPSource) Name() string { return "http" }

// Run routes ingested records to h until ctx is canceled. Records already
// being dispatched when ctx is canceled reach h before Run returns; later
// requests are answered with 503.
func (s *HTTPSource) Run(ctx context.Context, h ports.RecordHandler) error {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.handler = nil
	s.mu.Unlock()
	return ctx.Err()
}

type ingestResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// maxReportedErrors caps the per-record errors echoed back to the client.
const maxReportedErrors = 10

// ServeHTTP handles POST /v1/requests with one record object or an array of
// records.
func (s *HTTPSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Run clears the handler under the write lock, so holding the read lock
	// across dispatch makes Run wait for records already being handed over.
	s.mu.RLock()
	h := s.handler
	if h == nil {
		s.mu.RUnlock()
		http.Error(w, "not accepting records", http.StatusServiceUnavailable)
		return
	}

	var resp ingestResponse
	accept := func(val *fastjson.Value) {
		rec, err := DecodeRecord(val)
		if err != nil {
			resp.Rejected++
			if len(resp.Errors) < maxReportedErrors {
				resp.Errors = append(resp.Errors, err.Error())
			}
			return
		}
		h.HandleRecord(rec)
		resp.Accepted++
	}

	if v.Type() == fastjson.TypeArray {
		arr, _ := v.Array()
		for _, val := range arr {
			accept(val)
		}
	} else {
		accept(v)
	}
	s.mu.RUnlock()

	if resp.Rejected > 0 {
		s.logger.Warn("rejected ingested records",
			log.Int("accepted", resp.Accepted),
			log.Int("rejected", resp.Rejected),
			log.String("remote", r.RemoteAddr),
		)
	}

	status := http.StatusAccepted
	if resp.Accepted == 0 && resp.Rejected > 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
