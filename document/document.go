// Package document defines the data model shared by the transform and index
// stages: raw input documents, the normalized intermediate document with its
// tagged root-value variant, insertion-ordered field/key maps, and the lineage
// wrapping applied to every stored value.
package document

import (
	"fmt"
	"math"
	"strconv"
)

// Reserved keys in the index store.
const (
	// AllKey is the aggregate key holding the concatenation of all other
	// keys' values for a field (or of all field aggregates at root level).
	AllKey = "__all__"

	// DefaultField is the synthetic field name used for roots that are not
	// entity-field shaped (plain arrays, objects, scalars).
	DefaultField = "__default__"

	// SingleKey is the synthetic key for single-value roots (objects and
	// scalars stored as a one-element list).
	SingleKey = "__single__"
)

// Property names used by lineage attachment.
const (
	// ParentIDProperty carries the ordered ancestor-ID trail on wrapped values.
	ParentIDProperty = "parentId"

	// ChildrenProperty is the nesting property lineage attachment recurses
	// through when an array element carries nested elements.
	ChildrenProperty = "children"
)

// Document is a raw input document: a mapping of root collection names to
// JSON-like values (arrays, objects, scalars).
type Document map[string]any

// Kind discriminates the shape of a normalized root value.
type Kind int

const (
	// KindEntity is an entity array restructured into field → id → items.
	KindEntity Kind = iota
	// KindArray is a plain array passed through unchanged.
	KindArray
	// KindValue is a plain object or scalar passed through unchanged.
	KindValue
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindArray:
		return "array"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// RootValue is the tagged variant a normalized root resolves to. Exactly one
// of Fields, Array, or Value is meaningful, selected by Kind.
type RootValue struct {
	Kind   Kind
	Fields *FieldMap // KindEntity
	Array  []any     // KindArray
	Value  any       // KindValue
}

// EntityRoot wraps a field map as an entity-shaped root value.
func EntityRoot(fields *FieldMap) *RootValue {
	return &RootValue{Kind: KindEntity, Fields: fields}
}

// ArrayRoot wraps a plain array as a pass-through root value.
func ArrayRoot(items []any) *RootValue {
	return &RootValue{Kind: KindArray, Array: items}
}

// ValueRoot wraps an object or scalar as a pass-through root value.
func ValueRoot(v any) *RootValue {
	return &RootValue{Kind: KindValue, Value: v}
}

// Normalized is the output of the transform stage: mapped root name →
// RootValue, preserving insertion order for deterministic indexing.
type Normalized struct {
	names []string
	roots map[string]*RootValue
}

// NewNormalized creates an empty normalized document
func NewNormalized() *Normalized {
	return &Normalized{roots: make(map[string]*RootValue)}
}

// Put stores a root value, replacing any previous value for the same name
// while keeping the name's original position.
func (n *Normalized) Put(name string, v *RootValue) {
	if _, exists := n.roots[name]; !exists {
		n.names = append(n.names, name)
	}
	n.roots[name] = v
}

// Get returns the root value for a name
func (n *Normalized) Get(name string) (*RootValue, bool) {
	v, ok := n.roots[name]
	return v, ok
}

// Roots returns root names in insertion order
func (n *Normalized) Roots() []string {
	out := make([]string, len(n.names))
	copy(out, n.names)
	return out
}

// Len returns the number of roots
func (n *Normalized) Len() int {
	return len(n.names)
}

// Key converts an extracted entity ID to its canonical string form. Upstream
// data is JSON-shaped, where object keys are strings; numeric IDs collapse to
// their integer representation when integral so 1, int64(1) and float64(1)
// address the same list.
func Key(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return Key(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
