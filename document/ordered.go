package document

// KeyMap is an insertion-ordered mapping of canonical keys to item lists.
// The aggregate invariant (every "__all__" list equals the concatenation of
// the other keys' lists in iteration order) requires deterministic iteration,
// which Go's built-in maps do not provide.
type KeyMap struct {
	keys []string
	m    map[string][]any
}

// NewKeyMap creates an empty key map
func NewKeyMap() *KeyMap {
	return &KeyMap{m: make(map[string][]any)}
}

// Append appends items to the list for a key, creating the key if absent.
// Appending zero items still creates the key with an empty list, keeping
// "key exists with an empty list" distinguishable from "no such key".
func (km *KeyMap) Append(key string, items ...any) {
	if _, exists := km.m[key]; !exists {
		km.keys = append(km.keys, key)
		km.m[key] = []any{}
	}
	km.m[key] = append(km.m[key], items...)
}

// Get returns the list for a key
func (km *KeyMap) Get(key string) ([]any, bool) {
	items, ok := km.m[key]
	return items, ok
}

// Has reports whether the key exists
func (km *KeyMap) Has(key string) bool {
	_, ok := km.m[key]
	return ok
}

// Keys returns keys in insertion order
func (km *KeyMap) Keys() []string {
	out := make([]string, len(km.keys))
	copy(out, km.keys)
	return out
}

// Len returns the number of keys
func (km *KeyMap) Len() int {
	return len(km.keys)
}

// ItemCount returns the number of items stored, without double-counting
// aggregates. When an "__all__" list exists its length is the answer: for
// entity fields it mirrors the keyed lists, and for plain-array roots it is
// the only complete list (id-keyed entries omit items without an id).
func (km *KeyMap) ItemCount() int {
	if all, ok := km.m[AllKey]; ok {
		return len(all)
	}
	total := 0
	for _, key := range km.keys {
		total += len(km.m[key])
	}
	return total
}

// FieldMap is an insertion-ordered mapping of field names to key maps.
type FieldMap struct {
	names []string
	m     map[string]*KeyMap
}

// NewFieldMap creates an empty field map
func NewFieldMap() *FieldMap {
	return &FieldMap{m: make(map[string]*KeyMap)}
}

// Field returns the key map for a field, creating it if absent
func (fm *FieldMap) Field(name string) *KeyMap {
	km, ok := fm.m[name]
	if !ok {
		km = NewKeyMap()
		fm.names = append(fm.names, name)
		fm.m[name] = km
	}
	return km
}

// Get returns the key map for a field without creating it
func (fm *FieldMap) Get(name string) (*KeyMap, bool) {
	km, ok := fm.m[name]
	return km, ok
}

// Has reports whether the field exists
func (fm *FieldMap) Has(name string) bool {
	_, ok := fm.m[name]
	return ok
}

// Fields returns field names in insertion order
func (fm *FieldMap) Fields() []string {
	out := make([]string, len(fm.names))
	copy(out, fm.names)
	return out
}

// Len returns the number of fields
func (fm *FieldMap) Len() int {
	return len(fm.names)
}

// ItemCount returns the total number of items across all fields, skipping the
// root-level aggregate field so its copy is not double-counted.
func (fm *FieldMap) ItemCount() int {
	total := 0
	for _, name := range fm.names {
		if name == AllKey {
			continue
		}
		total += fm.m[name].ItemCount()
	}
	return total
}
