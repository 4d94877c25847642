// Package indexstore implements the three-level lookup structure: root name →
// field name → key → ordered item list. Build constructs a complete store from
// a normalized document, including aggregate collections; Merge mutates an
// existing store append-only for the incremental path.
package indexstore

import (
	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/document"
)

// Store is the index structure. A full rebuild produces a fresh store that
// the engine swaps in whole; appends mutate the live store in place. The
// store itself is not goroutine safe, the engine arbitrates access.
type Store struct {
	names []string
	roots map[string]*document.FieldMap

	// Build-time configuration that governs how later merges maintain the
	// store's aggregates.
	skipAll         bool
	indexArraysByID bool
}

// Build constructs a store from a normalized document
func Build(n *document.Normalized, cfg config.Engine) *Store {
	cfg.Normalize()
	s := &Store{
		roots:           make(map[string]*document.FieldMap),
		skipAll:         cfg.SkipAllCollections,
		indexArraysByID: cfg.IndexArraysByID,
	}

	for _, root := range n.Roots() {
		rv, _ := n.Get(root)
		s.addRoot(root, rv)
	}

	if cfg.CreatePrecomputedCollections && !cfg.SkipAllCollections {
		s.buildRootAggregates(cfg.PrecomputeThreshold)
	}

	return s
}

// addRoot indexes one normalized root into a fresh field map
func (s *Store) addRoot(root string, rv *document.RootValue) {
	fm := document.NewFieldMap()

	switch rv.Kind {
	case document.KindEntity:
		for _, field := range rv.Fields.Fields() {
			src, _ := rv.Fields.Get(field)
			dst := fm.Field(field)
			for _, key := range src.Keys() {
				items, _ := src.Get(key)
				dst.Append(key, items...)
			}
			if !s.skipAll {
				buildFieldAggregate(dst)
			}
		}

	case document.KindArray:
		km := fm.Field(document.DefaultField)
		km.Append(document.AllKey, rv.Array...)
		if s.indexArraysByID {
			indexArrayByID(km, rv.Array)
		}

	case document.KindValue:
		fm.Field(document.DefaultField).Append(document.SingleKey, rv.Value)
	}

	if _, exists := s.roots[root]; !exists {
		s.names = append(s.names, root)
	}
	s.roots[root] = fm
}

// buildFieldAggregate appends the "__all__" key holding the concatenation of
// all existing keys' lists in insertion order. The destination list is
// pre-sized; that is a performance detail, not a semantic one.
func buildFieldAggregate(km *document.KeyMap) {
	total := km.ItemCount()
	all := make([]any, 0, total)
	for _, key := range km.Keys() {
		if key == document.AllKey {
			continue
		}
		items, _ := km.Get(key)
		all = append(all, items...)
	}
	km.Append(document.AllKey, all...)
}

// indexArrayByID additionally keys plain-array items by their "id" property.
// Items lacking an id are omitted from id-based access but remain reachable
// through "__all__".
func indexArrayByID(km *document.KeyMap, items []any) {
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, present := obj["id"]
		if !present || id == nil {
			continue
		}
		km.Append(document.Key(id), item)
	}
}

// buildRootAggregates adds a root-level "__all__" field for every root whose
// total item count exceeds the threshold (every multi-field root when the
// threshold is zero). Roots with at most one field are never aggregated: the
// single field's own aggregate already covers them.
func (s *Store) buildRootAggregates(threshold int) {
	for _, root := range s.names {
		fm := s.roots[root]
		if fm.Len() <= 1 || fm.Has(document.AllKey) {
			continue
		}

		total := fm.ItemCount()
		if threshold > 0 && total <= threshold {
			continue
		}

		all := make([]any, 0, total)
		for _, field := range fm.Fields() {
			if field == document.AllKey {
				continue
			}
			km, _ := fm.Get(field)
			if items, ok := km.Get(document.AllKey); ok {
				all = append(all, items...)
			}
		}
		fm.Field(document.AllKey).Append(document.AllKey, all...)
	}
}

// Merge folds a normalized document into the live store append-only: item
// lists only grow, existing aggregates are extended with the same items, and
// aggregates that did not exist are not retroactively created (a full rebuild
// re-establishes threshold-triggered aggregation).
func (s *Store) Merge(n *document.Normalized) {
	for _, root := range n.Roots() {
		rv, _ := n.Get(root)

		fm, exists := s.roots[root]
		if !exists {
			// New roots get basic indexing; root-level aggregates wait
			// for the next full rebuild.
			s.addRoot(root, rv)
			continue
		}

		switch rv.Kind {
		case document.KindEntity:
			s.mergeEntityRoot(fm, rv.Fields)
		case document.KindArray:
			s.mergeArrayRoot(fm, rv.Array)
		case document.KindValue:
			fm.Field(document.DefaultField).Append(document.SingleKey, rv.Value)
		}
	}
}

func (s *Store) mergeEntityRoot(fm *document.FieldMap, fields *document.FieldMap) {
	rootAgg, hasRootAgg := fm.Get(document.AllKey)

	for _, field := range fields.Fields() {
		src, _ := fields.Get(field)

		newField := !fm.Has(field)
		dst := fm.Field(field)

		appended := make([]any, 0, src.ItemCount())
		for _, key := range src.Keys() {
			items, _ := src.Get(key)
			dst.Append(key, items...)
			appended = append(appended, items...)
		}

		switch {
		case newField && !s.skipAll:
			buildFieldAggregate(dst)
		case dst.Has(document.AllKey):
			dst.Append(document.AllKey, appended...)
		}

		if hasRootAgg {
			rootAgg.Append(document.AllKey, appended...)
		}
	}
}

func (s *Store) mergeArrayRoot(fm *document.FieldMap, items []any) {
	km := fm.Field(document.DefaultField)
	km.Append(document.AllKey, items...)
	if s.indexArraysByID {
		indexArrayByID(km, items)
	}

	if rootAgg, ok := fm.Get(document.AllKey); ok {
		rootAgg.Append(document.AllKey, items...)
	}
}

// Roots returns root names in insertion order
func (s *Store) Roots() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Root returns the field map for a root
func (s *Store) Root(name string) (*document.FieldMap, bool) {
	fm, ok := s.roots[name]
	return fm, ok
}

// Lookup returns everything under a root: the precomputed root aggregate when
// present, otherwise an on-demand concatenation (computed, not cached, so
// roots that opted out of precomputation don't grow resident memory).
func (s *Store) Lookup(root string) ([]any, bool) {
	fm, ok := s.roots[root]
	if !ok {
		return nil, false
	}

	if agg, ok := fm.Get(document.AllKey); ok {
		if items, ok := agg.Get(document.AllKey); ok {
			return items, true
		}
	}

	var all []any
	for _, field := range fm.Fields() {
		if field == document.AllKey {
			continue
		}
		km, _ := fm.Get(field)
		if items, ok := km.Get(document.AllKey); ok {
			all = append(all, items...)
			continue
		}
		// No field aggregate (skipped collections or single-value roots):
		// concatenate the keys directly.
		for _, key := range km.Keys() {
			items, _ := km.Get(key)
			all = append(all, items...)
		}
	}
	if all == nil {
		all = []any{}
	}
	return all, true
}

// LookupField returns a field's aggregate list, or an empty list when the
// field exists without one. An unknown root or field is not found.
func (s *Store) LookupField(root, field string) ([]any, bool) {
	fm, ok := s.roots[root]
	if !ok {
		return nil, false
	}
	km, ok := fm.Get(field)
	if !ok {
		return nil, false
	}
	if items, ok := km.Get(document.AllKey); ok {
		return items, true
	}
	return []any{}, true
}

// LookupKey returns the exact list at root/field/key. Callers can distinguish
// "no such key" (not found) from "key exists with an empty list".
func (s *Store) LookupKey(root, field, key string) ([]any, bool) {
	fm, ok := s.roots[root]
	if !ok {
		return nil, false
	}
	km, ok := fm.Get(field)
	if !ok {
		return nil, false
	}
	return km.Get(key)
}

// RootCount returns the number of roots
func (s *Store) RootCount() int {
	return len(s.names)
}

// ItemCount returns the total number of items across all roots, excluding
// aggregates.
func (s *Store) ItemCount() int {
	total := 0
	for _, root := range s.names {
		total += s.roots[root].ItemCount()
	}
	return total
}
