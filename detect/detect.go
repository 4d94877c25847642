// Package detect implements the generic entity heuristics: deciding whether an
// array of objects is an entity array, choosing its ID property, and producing
// an ID for a single entity when no rules are configured.
//
// The heuristics are intentionally approximate. ID-property uniqueness is
// verified against a bounded sample, and the generated-ID fallback is a 32-bit
// content hash that can collide for structurally distinct entities. Both are
// accepted approximations; downstream consumers that merge entities under one
// key depend on this exact behavior.
package detect

import (
	"sort"
	"strings"
)

// Sampling bounds for the heuristics.
const (
	// idPropertySampleSize bounds how many elements are scanned for ID-like
	// property names.
	idPropertySampleSize = 5

	// uniquenessSampleSize bounds how many elements are checked when
	// verifying that a candidate ID property is unique.
	uniquenessSampleSize = 20

	// structuralSampleSize bounds how many elements after the first are
	// compared for structural consistency.
	structuralSampleSize = 9

	// structuralOverlap is the minimum share of the first element's property
	// set a following element must carry to count as structurally consistent.
	structuralOverlap = 0.75
)

// idPatterns are the substrings an ID-like property name matches against,
// case-insensitive.
var idPatterns = []string{"id", "code", "key", "num", "uuid", "guid", "ref"}

// exactIDProperties is the priority list tried for single-entity extraction,
// exact name matches first, then suffix/prefix matches.
var exactIDProperties = []string{"id", "key", "code", "uuid", "guid", "Id", "ID", "Key", "Code"}

// GeneratedIDPrefix marks IDs produced by the content-hash fallback.
const GeneratedIDPrefix = "gen-"

// Result reports the outcome of entity-array detection.
type Result struct {
	// IsEntity is true when the array should be restructured into an
	// identity-keyed index.
	IsEntity bool

	// IDProperty is the property chosen by the ID-property heuristic. Empty
	// when the array was accepted on structural consistency alone; elements
	// then fall back to generic per-entity extraction.
	IDProperty string
}

// EntityArray applies the generic heuristics to an array. Empty arrays and
// arrays whose elements are not objects are never entity arrays.
func EntityArray(items []any) Result {
	if len(items) == 0 {
		return Result{}
	}
	if _, ok := items[0].(map[string]any); !ok {
		return Result{}
	}

	if prop, ok := idProperty(items); ok {
		return Result{IsEntity: true, IDProperty: prop}
	}

	if structurallyConsistent(items) {
		return Result{IsEntity: true}
	}

	return Result{}
}

// idProperty scans a bounded sample of elements for property names matching
// the ID-like patterns. Among candidates present on every sampled element it
// prefers the first one verified unique across a larger sample; when none is
// unique it falls back to the first candidate found. Uniqueness is therefore
// not guaranteed.
func idProperty(items []any) (string, bool) {
	sample := items
	if len(sample) > idPropertySampleSize {
		sample = sample[:idPropertySampleSize]
	}

	// Candidate scan order follows the sorted property names of the first
	// element so repeated runs over the same data pick the same property.
	first, ok := sample[0].(map[string]any)
	if !ok {
		return "", false
	}

	names := make([]string, 0, len(first))
	for name := range first {
		names = append(names, name)
	}
	sort.Strings(names)

	var candidates []string
	for _, name := range names {
		if !matchesIDPattern(name) {
			continue
		}
		if presentOnAll(sample, name) {
			candidates = append(candidates, name)
		}
	}

	if len(candidates) == 0 {
		return "", false
	}

	for _, candidate := range candidates {
		if uniqueAcrossSample(items, candidate) {
			return candidate, true
		}
	}

	// Known approximation: no candidate verified unique, take the first.
	return candidates[0], true
}

func matchesIDPattern(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range idPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func presentOnAll(sample []any, name string) bool {
	for _, item := range sample {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, present := obj[name]; !present {
			return false
		}
	}
	return true
}

func uniqueAcrossSample(items []any, name string) bool {
	sample := items
	if len(sample) > uniquenessSampleSize {
		sample = sample[:uniquenessSampleSize]
	}

	seen := make(map[string]struct{}, len(sample))
	for _, item := range sample {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		v, present := obj[name]
		if !present || v == nil {
			return false
		}
		key := canonicalString(v)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// structurallyConsistent accepts an array when every element in the bounded
// sample after the first shares at least 75% of the first element's property
// set. A single-element array has nothing to compare against and is rejected.
func structurallyConsistent(items []any) bool {
	first, ok := items[0].(map[string]any)
	if !ok || len(first) == 0 {
		return false
	}

	rest := items[1:]
	if len(rest) == 0 {
		return false
	}
	if len(rest) > structuralSampleSize {
		rest = rest[:structuralSampleSize]
	}

	required := int(float64(len(first)) * structuralOverlap)
	if required < 1 {
		required = 1
	}

	for _, item := range rest {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		shared := 0
		for name := range first {
			if _, present := obj[name]; present {
				shared++
			}
		}
		if shared < required {
			return false
		}
	}
	return true
}

// ExtractID produces an ID for a single entity with no configured rules. It
// tries exact matches against the priority list, then suffix/prefix matches
// over the entity's own property names, then a name/title-derived ID, and
// finally the deterministic generated-ID fallback. The fallback always
// succeeds, so ok is false only for a nil entity.
func ExtractID(entity map[string]any) (any, bool) {
	if entity == nil {
		return nil, false
	}

	for _, name := range exactIDProperties {
		if v, present := entity[name]; present && v != nil {
			return v, true
		}
	}

	// Suffix/prefix matches over sorted property names for a stable pick.
	names := make([]string, 0, len(entity))
	for name := range entity {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, pattern := range exactIDProperties {
		for _, name := range names {
			if name == pattern {
				continue
			}
			if strings.HasSuffix(name, pattern) || strings.HasPrefix(name, pattern) {
				if v := entity[name]; v != nil {
					return v, true
				}
			}
		}
	}

	if v, present := entity["name"]; present && v != nil {
		return "name-" + canonicalScalar(v), true
	}
	if v, present := entity["title"]; present && v != nil {
		return "title-" + canonicalScalar(v), true
	}

	return GeneratedID(entity), true
}

// GeneratedID returns the deterministic fallback ID for an entity: a 32-bit
// rolling hash of its key-sorted canonical serialization, base-36 encoded.
// Structurally distinct entities may collide; this is accepted.
func GeneratedID(entity map[string]any) string {
	return GeneratedIDPrefix + encodeBase36(hash32(canonicalString(entity)))
}
