// Package service runs the indexing engine behind NATS subjects: ingest
// messages append documents to the live index, reindex messages trigger a
// full rebuild, and lookup requests are answered over request-reply.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/document"
	"github.com/c360/jsonindex/engine"
	"github.com/c360/jsonindex/errors"
	"github.com/c360/jsonindex/metric"
)

// Transport is the slice of the NATS client the service needs. Satisfied by
// *natsclient.Client.
type Transport interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
	SubscribeReply(ctx context.Context, subject string, handler func(context.Context, []byte) ([]byte, error)) error
	IsHealthy() bool
}

// LookupRequest is the payload of a lookup request. Field and Key narrow the
// read: root alone returns everything under the root, root+field the field's
// aggregate, root+field+key the exact list.
type LookupRequest struct {
	Root  string `json:"root"`
	Field string `json:"field,omitempty"`
	Key   string `json:"key,omitempty"`
}

// LookupResponse is the reply to a lookup request. Items is always present
// on a successful reply, so a hit on an empty list encodes as "items":[]
// rather than vanishing from the payload.
type LookupResponse struct {
	RequestID string `json:"requestId"`
	Items     []any  `json:"items"`
	Error     string `json:"error,omitempty"`
}

// Service subscribes the engine to its subjects and owns the service
// lifecycle.
type Service struct {
	engine    *engine.Engine
	transport Transport
	subjects  config.Subjects
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *metric.Metrics

	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
}

// New creates a service. A zero ingest rate disables rate limiting. Logger
// and metrics may be nil.
func New(
	eng *engine.Engine,
	transport Transport,
	subjects config.Subjects,
	ingest config.Ingest,
	logger *slog.Logger,
	metrics *metric.Metrics,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if ingest.RatePerSecond > 0 {
		burst := ingest.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ingest.RatePerSecond), burst)
	}

	return &Service{
		engine:    eng,
		transport: transport,
		subjects:  subjects,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start subscribes to the ingest, reindex and lookup subjects
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.ErrAlreadyStarted
	}

	subCtx, cancel := context.WithCancel(ctx)

	if err := s.transport.Subscribe(subCtx, s.subjects.Ingest, s.handleIngest); err != nil {
		cancel()
		return errors.WrapTransient(err, "Service", "Start", "subscribe ingest")
	}
	if err := s.transport.Subscribe(subCtx, s.subjects.Reindex, s.handleReindex); err != nil {
		cancel()
		return errors.WrapTransient(err, "Service", "Start", "subscribe reindex")
	}
	if err := s.transport.SubscribeReply(subCtx, s.subjects.Lookup, s.handleLookup); err != nil {
		cancel()
		return errors.WrapTransient(err, "Service", "Start", "subscribe lookup")
	}

	s.cancel = cancel
	s.running = true
	s.logger.Info("service started",
		"ingest", s.subjects.Ingest,
		"reindex", s.subjects.Reindex,
		"lookup", s.subjects.Lookup)
	return nil
}

// Stop cancels the subscriptions' contexts. The transport owns unsubscribe
// and drain on close.
func (s *Service) Stop() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return errors.ErrNotStarted
	}

	s.cancel()
	s.cancel = nil
	s.running = false
	s.logger.Info("service stopped")
	return nil
}

// Healthy reports whether the service is running with a live transport
func (s *Service) Healthy() bool {
	s.lifecycleMu.Lock()
	running := s.running
	s.lifecycleMu.Unlock()
	return running && s.transport.IsHealthy()
}

func (s *Service) handleIngest(_ context.Context, data []byte) {
	requestID := uuid.NewString()

	if s.limiter != nil && !s.limiter.Allow() {
		s.recordIngest("rate_limited")
		s.logger.Warn("ingest message dropped", "requestId", requestID, "error", errors.ErrRateLimited)
		return
	}

	raw, err := decodeDocument(data)
	if err != nil {
		s.recordIngest("invalid")
		s.logger.Error("ingest message rejected", "requestId", requestID, "error", err)
		return
	}

	start := time.Now()
	s.engine.Append(raw)
	s.recordIngest("ok")
	s.logger.Debug("ingest appended",
		"requestId", requestID,
		"roots", len(raw),
		"duration", time.Since(start))
}

func (s *Service) handleReindex(_ context.Context, data []byte) {
	requestID := uuid.NewString()

	raw, err := decodeDocument(data)
	if err != nil {
		s.recordIngest("invalid")
		s.logger.Error("reindex message rejected", "requestId", requestID, "error", err)
		return
	}

	start := time.Now()
	s.engine.Index(raw)
	s.recordIngest("ok")
	s.logger.Info("reindex completed",
		"requestId", requestID,
		"roots", len(raw),
		"duration", time.Since(start))
}

func (s *Service) handleLookup(_ context.Context, data []byte) ([]byte, error) {
	requestID := uuid.NewString()

	var req LookupRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return marshalResponse(LookupResponse{
			RequestID: requestID,
			Error:     errors.Wrap(err, "Service", "handleLookup", "decode request").Error(),
		})
	}
	if req.Root == "" {
		return marshalResponse(LookupResponse{
			RequestID: requestID,
			Error:     "root is required",
		})
	}

	var (
		items []any
		err   error
	)
	switch {
	case req.Field == "":
		items, err = s.engine.Lookup(req.Root)
	case req.Key == "":
		items, err = s.engine.LookupField(req.Root, req.Field)
	default:
		items, err = s.engine.LookupKey(req.Root, req.Field, req.Key)
	}

	resp := LookupResponse{RequestID: requestID}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Items = items
	}
	return marshalResponse(resp)
}

func (s *Service) recordIngest(status string) {
	if s.metrics != nil {
		s.metrics.RecordIngest(status)
	}
}

func decodeDocument(data []byte) (document.Document, error) {
	var raw document.Document
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(err, "Service", "decodeDocument", "parse document")
	}
	if raw == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Service", "decodeDocument", "parse document")
	}
	return raw, nil
}

func marshalResponse(resp LookupResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, errors.Wrap(err, "Service", "marshalResponse", "encode response")
	}
	return data, nil
}
