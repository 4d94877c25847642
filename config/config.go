// Package config defines the engine configuration knobs and the daemon's file
// configuration. Invalid values never fail configuration: they fall back to
// defaults, since the engine sits under consumers that must keep serving.
package config

import "slices"

// Default values for engine knobs.
const (
	// DefaultChunkSize is the advisory batching hint for large-array
	// processing.
	DefaultChunkSize = 5000

	// DefaultPrecomputeThreshold is the item count above which a root gets a
	// precomputed root-level aggregate.
	DefaultPrecomputeThreshold = 10000
)

// Engine holds the engine configuration. The zero value is not meaningful;
// start from Default().
type Engine struct {
	// FieldsToIndex is an allow-list of entity fields to index. Empty means
	// all fields.
	FieldsToIndex []string `json:"fields_to_index,omitempty" yaml:"fields_to_index,omitempty"`

	// IndexArraysByID additionally indexes plain-array items by their "id"
	// property.
	IndexArraysByID bool `json:"index_arrays_by_id" yaml:"index_arrays_by_id"`

	// ChunkSize is an advisory batching hint for large-array processing.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// SkipAllCollections disables field-level "__all__" aggregates.
	SkipAllCollections bool `json:"skip_all_collections" yaml:"skip_all_collections"`

	// CreatePrecomputedCollections enables root-level "__all__" aggregates.
	CreatePrecomputedCollections bool `json:"create_precomputed_collections" yaml:"create_precomputed_collections"`

	// PrecomputeThreshold gates root-level aggregates by total item count.
	// Zero means unconditional.
	PrecomputeThreshold int `json:"precompute_threshold" yaml:"precompute_threshold"`

	// UseCompactObjectRepresentation is a performance hint with no
	// observable semantic difference.
	UseCompactObjectRepresentation bool `json:"use_compact_object_representation" yaml:"use_compact_object_representation"`

	// LogPerformance emits named duration events for each operation.
	LogPerformance bool `json:"log_performance" yaml:"log_performance"`

	// AutoDetectEntities enables the generic heuristic fallback when no
	// registered entity type matches.
	AutoDetectEntities bool `json:"auto_detect_entities" yaml:"auto_detect_entities"`
}

// Default returns the default engine configuration
func Default() Engine {
	return Engine{
		IndexArraysByID:                true,
		ChunkSize:                      DefaultChunkSize,
		CreatePrecomputedCollections:   true,
		PrecomputeThreshold:            DefaultPrecomputeThreshold,
		UseCompactObjectRepresentation: true,
		AutoDetectEntities:             true,
	}
}

// Normalize replaces invalid values with defaults. It never reports an error.
func (e *Engine) Normalize() {
	if e.ChunkSize <= 0 {
		e.ChunkSize = DefaultChunkSize
	}
	if e.PrecomputeThreshold < 0 {
		e.PrecomputeThreshold = DefaultPrecomputeThreshold
	}
}

// Clone returns a copy of the configuration
func (e Engine) Clone() Engine {
	clone := e
	clone.FieldsToIndex = slices.Clone(e.FieldsToIndex)
	return clone
}

// IndexesField reports whether a field passes the allow-list
func (e Engine) IndexesField(name string) bool {
	if len(e.FieldsToIndex) == 0 {
		return true
	}
	return slices.Contains(e.FieldsToIndex, name)
}

// Partial is a partial engine configuration for merge-style updates. Nil
// fields leave the current value unchanged.
type Partial struct {
	FieldsToIndex                  []string `json:"fields_to_index,omitempty" yaml:"fields_to_index,omitempty"`
	IndexArraysByID                *bool    `json:"index_arrays_by_id,omitempty" yaml:"index_arrays_by_id,omitempty"`
	ChunkSize                      *int     `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	SkipAllCollections             *bool    `json:"skip_all_collections,omitempty" yaml:"skip_all_collections,omitempty"`
	CreatePrecomputedCollections   *bool    `json:"create_precomputed_collections,omitempty" yaml:"create_precomputed_collections,omitempty"`
	PrecomputeThreshold            *int     `json:"precompute_threshold,omitempty" yaml:"precompute_threshold,omitempty"`
	UseCompactObjectRepresentation *bool    `json:"use_compact_object_representation,omitempty" yaml:"use_compact_object_representation,omitempty"`
	LogPerformance                 *bool    `json:"log_performance,omitempty" yaml:"log_performance,omitempty"`
	AutoDetectEntities             *bool    `json:"auto_detect_entities,omitempty" yaml:"auto_detect_entities,omitempty"`
}

// Apply merges a partial configuration into the engine configuration and
// normalizes the result.
func (e *Engine) Apply(p Partial) {
	if p.FieldsToIndex != nil {
		e.FieldsToIndex = slices.Clone(p.FieldsToIndex)
	}
	if p.IndexArraysByID != nil {
		e.IndexArraysByID = *p.IndexArraysByID
	}
	if p.ChunkSize != nil {
		e.ChunkSize = *p.ChunkSize
	}
	if p.SkipAllCollections != nil {
		e.SkipAllCollections = *p.SkipAllCollections
	}
	if p.CreatePrecomputedCollections != nil {
		e.CreatePrecomputedCollections = *p.CreatePrecomputedCollections
	}
	if p.PrecomputeThreshold != nil {
		e.PrecomputeThreshold = *p.PrecomputeThreshold
	}
	if p.UseCompactObjectRepresentation != nil {
		e.UseCompactObjectRepresentation = *p.UseCompactObjectRepresentation
	}
	if p.LogPerformance != nil {
		e.LogPerformance = *p.LogPerformance
	}
	if p.AutoDetectEntities != nil {
		e.AutoDetectEntities = *p.AutoDetectEntities
	}
	e.Normalize()
}
