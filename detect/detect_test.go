package detect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityArrayRejectsNonObjectArrays(t *testing.T) {
	tests := []struct {
		name  string
		items []any
	}{
		{"empty", []any{}},
		{"nil", nil},
		{"scalars", []any{"x", "y", "z"}},
		{"numbers", []any{1.0, 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EntityArray(tt.items)
			assert.False(t, res.IsEntity)
		})
	}
}

func TestEntityArrayFindsIDProperty(t *testing.T) {
	items := []any{
		map[string]any{"aeId": 1, "name": "A"},
		map[string]any{"aeId": 2, "name": "B"},
	}

	res := EntityArray(items)
	require.True(t, res.IsEntity)
	assert.Equal(t, "aeId", res.IDProperty)
}

func TestEntityArrayPrefersUniqueCandidate(t *testing.T) {
	// "code" repeats, "userId" is unique; the unique candidate wins even
	// though "code" sorts first.
	items := []any{
		map[string]any{"code": "x", "userId": 1},
		map[string]any{"code": "x", "userId": 2},
		map[string]any{"code": "x", "userId": 3},
	}

	res := EntityArray(items)
	require.True(t, res.IsEntity)
	assert.Equal(t, "userId", res.IDProperty)
}

func TestEntityArrayFallsBackToFirstCandidate(t *testing.T) {
	// Neither candidate is unique; the first in sorted property order is
	// taken anyway. Documented approximation.
	items := []any{
		map[string]any{"code": "x", "ref": "r"},
		map[string]any{"code": "x", "ref": "r"},
	}

	res := EntityArray(items)
	require.True(t, res.IsEntity)
	assert.Equal(t, "code", res.IDProperty)
}

func TestEntityArrayCandidateMustBePresentOnAllSamples(t *testing.T) {
	// "id" is missing from the second sampled element, so the structural
	// heuristic decides instead.
	items := []any{
		map[string]any{"id": 1, "name": "A", "size": 1},
		map[string]any{"name": "B", "size": 2},
	}

	res := EntityArray(items)
	require.True(t, res.IsEntity)
	assert.Empty(t, res.IDProperty)
}

func TestStructuralConsistency(t *testing.T) {
	items := []any{
		map[string]any{"alpha": 1, "beta": 2, "gamma": 3, "delta": 4},
		map[string]any{"alpha": 1, "beta": 2, "gamma": 3},
		map[string]any{"alpha": 1, "beta": 2, "delta": 4},
	}

	res := EntityArray(items)
	assert.True(t, res.IsEntity)
	assert.Empty(t, res.IDProperty)
}

func TestStructuralConsistencyRejectsDivergentShapes(t *testing.T) {
	items := []any{
		map[string]any{"alpha": 1, "beta": 2, "gamma": 3, "delta": 4},
		map[string]any{"other": true},
	}

	res := EntityArray(items)
	assert.False(t, res.IsEntity)
}

func TestStructuralConsistencyNeedsComparableElements(t *testing.T) {
	// A single object with no ID-like property has nothing to compare
	// against and passes through unmodified.
	items := []any{map[string]any{"alpha": 1}}

	res := EntityArray(items)
	assert.False(t, res.IsEntity)
}

func TestExtractIDPriorityOrder(t *testing.T) {
	tests := []struct {
		name   string
		entity map[string]any
		want   any
	}{
		{"exact id", map[string]any{"id": 7, "key": "k"}, 7},
		{"exact key", map[string]any{"key": "k", "code": "c"}, "k"},
		{"capitalized", map[string]any{"Id": "upper"}, "upper"},
		{"suffix match", map[string]any{"orderid": 12}, 12},
		{"prefix match", map[string]any{"keyName": "kn"}, "kn"},
		{"name fallback", map[string]any{"name": "widget"}, "name-widget"},
		{"title fallback", map[string]any{"title": "page"}, "title-page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractID(tt.entity)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIDSkipsNilValues(t *testing.T) {
	got, ok := ExtractID(map[string]any{"id": nil, "code": "c"})
	require.True(t, ok)
	assert.Equal(t, "c", got)
}

func TestExtractIDGeneratedFallback(t *testing.T) {
	entity := map[string]any{"weight": 1.5, "color": "red"}

	got, ok := ExtractID(entity)
	require.True(t, ok)

	id, isString := got.(string)
	require.True(t, isString)
	assert.True(t, strings.HasPrefix(id, GeneratedIDPrefix))

	// Stable across repeated calls on the same content.
	again, _ := ExtractID(map[string]any{"color": "red", "weight": 1.5})
	assert.Equal(t, got, again)
}

func TestExtractIDNilEntity(t *testing.T) {
	_, ok := ExtractID(nil)
	assert.False(t, ok)
}

func TestGeneratedIDDeterministic(t *testing.T) {
	a := map[string]any{"x": 1.0, "y": []any{"a", "b"}, "z": map[string]any{"n": true}}
	b := map[string]any{"z": map[string]any{"n": true}, "y": []any{"a", "b"}, "x": 1.0}

	assert.Equal(t, GeneratedID(a), GeneratedID(b))
	assert.NotEqual(t, GeneratedID(a), GeneratedID(map[string]any{"x": 2.0}))
}

func TestCanonicalStringSortsKeys(t *testing.T) {
	v := map[string]any{"b": 1.0, "a": "s", "c": nil}
	assert.Equal(t, `{"a":"s","b":1,"c":null}`, canonicalString(v))
}

func TestHash32Rolling(t *testing.T) {
	// h("ab") = 'a'*31 + 'b'
	assert.Equal(t, uint32('a')*31+uint32('b'), hash32("ab"))
	assert.Equal(t, uint32(0), hash32(""))
}

func TestUniquenessSampleBound(t *testing.T) {
	// Duplicate beyond the 20-element uniqueness sample goes unnoticed.
	items := make([]any, 0, 22)
	for i := 0; i < 21; i++ {
		items = append(items, map[string]any{"ref": fmt.Sprintf("r%d", i), "v": i})
	}
	items = append(items, map[string]any{"ref": "r0", "v": 99})

	res := EntityArray(items)
	require.True(t, res.IsEntity)
	assert.Equal(t, "ref", res.IDProperty)
}
