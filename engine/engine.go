// Package engine provides the indexing engine façade: transform raw documents,
// build or incrementally extend the index store, and serve lookups. A full
// Index builds the replacement store outside the store lock, so concurrent
// lookups are only blocked for the swap itself; Append merges into the live
// store under the write lock.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/c360/jsonindex/adapter"
	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/document"
	"github.com/c360/jsonindex/errors"
	"github.com/c360/jsonindex/indexstore"
	"github.com/c360/jsonindex/metric"
	"github.com/c360/jsonindex/transform"
)

// Engine is the top-level entry point. It owns the adapter, the transformer
// and the live store. Write paths (Index, Append, SetConfig) serialize on
// writeMu; storeMu arbitrates between lookups and store mutation.
type Engine struct {
	adapter     *adapter.Adapter
	transformer *transform.Transformer
	logger      *slog.Logger
	metrics     *metric.Metrics

	writeMu sync.Mutex
	cfg     config.Engine

	storeMu sync.RWMutex
	store   *indexstore.Store
}

// New creates an engine with an empty store so lookups answer before the
// first Index call. Logger and metrics may be nil.
func New(cfg config.Engine, logger *slog.Logger, metrics *metric.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Normalize()

	a := adapter.New()
	a.SetAutoDetect(cfg.AutoDetectEntities)

	return &Engine{
		adapter:     a,
		transformer: transform.New(a, cfg, logger, metrics),
		logger:      logger,
		metrics:     metrics,
		cfg:         cfg,
		store:       indexstore.Build(document.NewNormalized(), cfg),
	}
}

// Adapter returns the engine's adapter for entity-type registration
func (e *Engine) Adapter() *adapter.Adapter {
	return e.adapter
}

// Config returns a copy of the current configuration
func (e *Engine) Config() config.Engine {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.cfg.Clone()
}

// SetConfig replaces the engine configuration. The live store is untouched;
// the new configuration takes effect on the next Index or Append.
func (e *Engine) SetConfig(cfg config.Engine) {
	cfg.Normalize()

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.cfg = cfg
	e.adapter.SetAutoDetect(cfg.AutoDetectEntities)
	e.transformer.SetConfig(cfg)
}

// ApplyConfig merges a partial configuration update into the current
// configuration. Like SetConfig it never re-indexes and never fails.
func (e *Engine) ApplyConfig(p config.Partial) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.cfg.Apply(p)
	e.adapter.SetAutoDetect(e.cfg.AutoDetectEntities)
	e.transformer.SetConfig(e.cfg)
}

// Transform runs the transform pass alone, without touching the store
func (e *Engine) Transform(raw document.Document) *document.Normalized {
	return e.transformer.Transform(raw)
}

// Index transforms a raw document and replaces the live store with a freshly
// built one. Indexing the same document again produces an equivalent store.
func (e *Engine) Index(raw document.Document) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.indexLocked(raw)
}

// IndexNormalized replaces the live store from an already-transformed
// document, for callers that ran Transform themselves.
func (e *Engine) IndexNormalized(n *document.Normalized) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.publish(indexstore.Build(n, e.cfg), time.Now())
}

// Initialize applies an optional configuration update, then transforms and
// indexes the raw document in one step, returning the normalized document.
func (e *Engine) Initialize(raw document.Document, p *config.Partial) *document.Normalized {
	if p != nil {
		e.ApplyConfig(*p)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.indexLocked(raw)
}

func (e *Engine) indexLocked(raw document.Document) *document.Normalized {
	start := time.Now()
	n := e.transformer.Transform(raw)
	e.publish(indexstore.Build(n, e.cfg), start)
	return n
}

// publish swaps the freshly built store in. Callers hold writeMu.
func (e *Engine) publish(s *indexstore.Store, start time.Time) {
	e.storeMu.Lock()
	e.store = s
	e.storeMu.Unlock()

	duration := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordDuration(metric.OpIndex, duration)
		e.metrics.RecordRebuild()
		e.metrics.RecordStoreSize(s.RootCount(), s.ItemCount())
	}
	if e.cfg.LogPerformance {
		e.logger.Info("index rebuilt",
			"roots", s.RootCount(),
			"items", s.ItemCount(),
			"duration", duration)
	}
}

// Append transforms a raw document and folds it into the live store without a
// rebuild. Existing data is never removed or replaced; item lists only grow.
func (e *Engine) Append(raw document.Document) {
	start := time.Now()

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	n := e.transformer.Transform(raw)

	e.storeMu.Lock()
	e.store.Merge(n)
	roots, items := e.store.RootCount(), e.store.ItemCount()
	e.storeMu.Unlock()

	duration := time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordDuration(metric.OpAppend, duration)
		e.metrics.RecordAppend()
		e.metrics.RecordStoreSize(roots, items)
	}
	if e.cfg.LogPerformance {
		e.logger.Info("append merged",
			"roots", roots,
			"items", items,
			"duration", duration)
	}
}

// Lookup returns everything indexed under a root. The root name is resolved
// through the adapter's aliases first, so raw and canonical names address the
// same data.
func (e *Engine) Lookup(root string) ([]any, error) {
	root = e.adapter.MapRootName(root)

	e.storeMu.RLock()
	items, ok := e.store.Lookup(root)
	e.storeMu.RUnlock()

	e.recordLookup(ok)
	if !ok {
		return nil, errors.Wrap(errors.ErrRootNotFound, "Engine", "Lookup", "resolve root "+root)
	}
	return items, nil
}

// LookupField returns a field's aggregate list under a root
func (e *Engine) LookupField(root, field string) ([]any, error) {
	root = e.adapter.MapRootName(root)

	e.storeMu.RLock()
	items, ok := e.store.LookupField(root, field)
	e.storeMu.RUnlock()

	e.recordLookup(ok)
	if !ok {
		return nil, errors.Wrap(errors.ErrKeyNotFound, "Engine", "LookupField", "resolve "+root+"/"+field)
	}
	return items, nil
}

// LookupKey returns the exact item list at root/field/key
func (e *Engine) LookupKey(root, field, key string) ([]any, error) {
	root = e.adapter.MapRootName(root)

	e.storeMu.RLock()
	items, ok := e.store.LookupKey(root, field, key)
	e.storeMu.RUnlock()

	e.recordLookup(ok)
	if !ok {
		return nil, errors.Wrap(errors.ErrKeyNotFound, "Engine", "LookupKey", "resolve "+root+"/"+field+"/"+key)
	}
	return items, nil
}

// Roots returns the root names of the live store in insertion order
func (e *Engine) Roots() []string {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()
	return e.store.Roots()
}

// Stats reports the live store's size
func (e *Engine) Stats() (roots, items int) {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()
	return e.store.RootCount(), e.store.ItemCount()
}

func (e *Engine) recordLookup(hit bool) {
	if e.metrics != nil {
		e.metrics.RecordLookup(hit)
	}
}
