// Package transform implements the transform pass: raw documents in, the
// normalized intermediate document out. Entity arrays are reshaped into
// field → id → items groupings with lineage attached to every stored value;
// everything else passes through unchanged under its mapped root name.
package transform

import (
	"log/slog"
	"sort"
	"time"

	"github.com/c360/jsonindex/adapter"
	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/document"
	"github.com/c360/jsonindex/metric"
)

// Transformer consumes raw input and produces a normalized document using the
// adapter's detection rules.
type Transformer struct {
	adapter *adapter.Adapter
	cfg     config.Engine
	logger  *slog.Logger
	metrics *metric.Metrics
}

// New creates a transformer. Logger and metrics may be nil.
func New(a *adapter.Adapter, cfg config.Engine, logger *slog.Logger, metrics *metric.Metrics) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Normalize()
	return &Transformer{
		adapter: a,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// SetConfig replaces the transformer's configuration
func (t *Transformer) SetConfig(cfg config.Engine) {
	cfg.Normalize()
	t.cfg = cfg
}

// Transform produces a normalized document from raw input. Iteration order
// over the raw document's roots is not significant and must not be relied
// upon; the normalized document records roots in the order they were
// processed.
func (t *Transformer) Transform(raw document.Document) *document.Normalized {
	start := time.Now()
	n := document.NewNormalized()

	for rootName, value := range raw {
		mapped := t.adapter.MapRootName(rootName)

		items, isArray := value.([]any)
		if !isArray {
			n.Put(mapped, document.ValueRoot(value))
			continue
		}

		det := t.adapter.DetectEntityArray(mapped, items)
		if !det.IsEntity {
			n.Put(mapped, document.ArrayRoot(items))
			continue
		}

		fields, indexed, skipped := t.transformEntityArray(mapped, det, items)
		n.Put(mapped, document.EntityRoot(fields))

		if t.metrics != nil {
			t.metrics.RecordEntitiesIndexed(mapped, indexed)
			t.metrics.RecordEntitiesSkipped(mapped, skipped)
		}
		if skipped > 0 && t.cfg.LogPerformance {
			t.logger.Debug("elements skipped without extractable id",
				"root", mapped,
				"skipped", skipped,
				"indexed", indexed)
		}
	}

	duration := time.Since(start)
	if t.metrics != nil {
		t.metrics.RecordDuration(metric.OpTransform, duration)
	}
	if t.cfg.LogPerformance {
		t.logger.Info("transform completed",
			"roots", n.Len(),
			"duration", duration)
	}

	return n
}

// transformEntityArray reshapes one entity array into field → id → items.
// Elements without an extractable ID are skipped entirely, never aborting the
// batch. Processing runs in chunks per the advisory chunk size.
func (t *Transformer) transformEntityArray(
	root string, det adapter.Detection, items []any,
) (fields *document.FieldMap, indexed, skipped int) {
	fields = document.NewFieldMap()

	chunk := t.cfg.ChunkSize
	for offset := 0; offset < len(items); offset += chunk {
		end := offset + chunk
		if end > len(items) {
			end = len(items)
		}
		chunkStart := time.Now()

		for _, item := range items[offset:end] {
			entity, ok := item.(map[string]any)
			if !ok {
				skipped++
				continue
			}

			id, ok := t.extractID(det, entity)
			if !ok {
				skipped++
				continue
			}

			t.placeEntity(fields, det, entity, id)
			indexed++
		}

		if t.cfg.LogPerformance && len(items) > chunk {
			t.logger.Debug("chunk processed",
				"root", root,
				"offset", offset,
				"size", end-offset,
				"duration", time.Since(chunkStart))
		}
	}

	return fields, indexed, skipped
}

// extractID resolves one element's identity. When detection pinned an ID
// property (configured or heuristic) without custom rules, the property is
// read directly; otherwise extraction dispatches through the adapter.
func (t *Transformer) extractID(det adapter.Detection, entity map[string]any) (any, bool) {
	if det.EntityType == "" && det.IDProperty != "" {
		v, present := entity[det.IDProperty]
		if !present || v == nil {
			return nil, false
		}
		return v, true
	}

	id, err := t.adapter.ExtractEntityID(det.EntityType, entity)
	if err != nil || id == nil {
		return nil, false
	}
	return id, true
}

// placeEntity distributes one entity's properties into the field map, each
// value wrapped to carry lineage. The ID property itself is not stored as a
// field. Properties are visited in sorted name order so field registration
// order is stable for identical data.
func (t *Transformer) placeEntity(
	fields *document.FieldMap, det adapter.Detection, entity map[string]any, id any,
) {
	key := document.Key(id)

	names := make([]string, 0, len(entity))
	for name := range entity {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == det.IDProperty {
			continue
		}
		if !t.cfg.IndexesField(name) {
			continue
		}

		switch v := entity[name].(type) {
		case map[string]any:
			fields.Field(name).Append(key, document.CloneWithParent(v, id))
		case []any:
			fields.Field(name).Append(key, document.AttachLineage(v, id)...)
		default:
			fields.Field(name).Append(key, document.WrapScalar(v, id))
		}
	}
}
