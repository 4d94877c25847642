package document

// WrapScalar wraps a scalar property value so that it carries lineage like
// every other stored item: {value: v, parentId: [id]}.
func WrapScalar(v any, parentID any) map[string]any {
	return map[string]any{
		"value":          v,
		ParentIDProperty: []any{parentID},
	}
}

// CloneWithParent shallow-clones an object value and attaches the owning
// entity's lineage. The input map is left untouched.
func CloneWithParent(obj map[string]any, parentID any) map[string]any {
	clone := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		clone[k] = v
	}
	clone[ParentIDProperty] = []any{parentID}
	return clone
}

// AttachLineage returns a copy of an array value with lineage attached to
// every object element, recursing through each element's "children" array.
// Non-object elements are carried over unchanged; they cannot hold a
// parentId property.
func AttachLineage(items []any, parentID any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}

		clone := make(map[string]any, len(obj)+1)
		for k, v := range obj {
			clone[k] = v
		}
		clone[ParentIDProperty] = []any{parentID}

		if children, ok := clone[ChildrenProperty].([]any); ok {
			clone[ChildrenProperty] = AttachLineage(children, parentID)
		}

		out[i] = clone
	}
	return out
}
