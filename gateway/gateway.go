// Package gateway serves lookups over HTTP. It exposes the three lookup
// shapes under /v1/lookup, a health endpoint and the Prometheus metrics
// endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/jsonindex/engine"
	"github.com/c360/jsonindex/errors"
	"github.com/c360/jsonindex/metric"
)

// HealthFunc reports whether the backing service is healthy
type HealthFunc func() bool

// Server is the HTTP lookup gateway
type Server struct {
	engine   *engine.Engine
	logger   *slog.Logger
	registry *metric.Registry
	healthy  HealthFunc

	requests atomic.Int64

	lifecycleMu sync.Mutex
	httpServer  *http.Server
}

// lookupResult is the response body for a successful lookup
type lookupResult struct {
	Root  string `json:"root"`
	Field string `json:"field,omitempty"`
	Key   string `json:"key,omitempty"`
	Count int    `json:"count"`
	Items []any  `json:"items"`
}

type errorResult struct {
	Error string `json:"error"`
}

// New creates a gateway server. Registry may be nil to disable the metrics
// endpoint; healthy may be nil, in which case the gateway reports healthy
// while running.
func New(eng *engine.Engine, logger *slog.Logger, registry *metric.Registry, healthy HealthFunc) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   eng,
		logger:   logger,
		registry: registry,
		healthy:  healthy,
	}
}

// Handler returns the gateway's HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/lookup/{root}", s.handleRoot)
	mux.HandleFunc("GET /v1/lookup/{root}/{field}", s.handleField)
	mux.HandleFunc("GET /v1/lookup/{root}/{field}/{key}", s.handleKey)
	mux.HandleFunc("GET /v1/roots", s.handleRoots)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}

	return mux
}

// Start begins serving on addr. It returns once the listener is running;
// serve errors other than graceful shutdown are logged.
func (s *Server) Start(addr string) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.httpServer != nil {
		return errors.ErrAlreadyStarted
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("gateway listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("gateway serve failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.httpServer == nil {
		return errors.ErrNotStarted
	}

	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	if err != nil {
		return errors.Wrap(err, "Server", "Stop", "shutdown http server")
	}
	return nil
}

// Requests returns the number of lookup requests served
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	root := r.PathValue("root")
	items, err := s.engine.Lookup(root)
	s.respond(w, r, lookupResult{Root: root, Count: len(items), Items: items}, err)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	root, field := r.PathValue("root"), r.PathValue("field")
	items, err := s.engine.LookupField(root, field)
	s.respond(w, r, lookupResult{Root: root, Field: field, Count: len(items), Items: items}, err)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	root, field, key := r.PathValue("root"), r.PathValue("field"), r.PathValue("key")
	items, err := s.engine.LookupKey(root, field, key)
	s.respond(w, r, lookupResult{Root: root, Field: field, Key: key, Count: len(items), Items: items}, err)
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	writeJSON(w, http.StatusOK, map[string]any{"roots": s.engine.Roots()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	healthy := true
	if s.healthy != nil {
		healthy = s.healthy()
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"healthy": healthy})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, result lookupResult, err error) {
	s.requests.Add(1)

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrRootNotFound) || errors.Is(err, errors.ErrKeyNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Debug("lookup miss", "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorResult{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
