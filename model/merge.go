package model

import "graphview/core"

// DeepExtend merges src into dst and returns dst.
//
// Nested objects are merged recursively, slices are replaced with a shallow
// copy, and every other value overwrites. A nil value deletes the key from
// dst when allowDeletion is set and the key exists; otherwise nil is stored.
func DeepExtend(dst, src map[string]any, allowDeletion bool) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		if value == nil {
			if _, exists := dst[key]; exists && allowDeletion {
				delete(dst, key)
			} else {
				dst[key] = nil
			}
			continue
		}

		if obj, ok := asObject(value); ok {
			existing, present := dst[key]
			if !present || existing == nil {
				dst[key] = DeepExtend(make(map[string]any, len(obj)), obj, allowDeletion)
				continue
			}
			if target, ok := asObject(existing); ok {
				dst[key] = DeepExtend(target, obj, allowDeletion)
				continue
			}
			dst[key] = cloneValue(obj)
			continue
		}

		if list, ok := value.([]any); ok {
			dst[key] = append([]any(nil), list...)
			continue
		}

		dst[key] = value
	}
	return dst
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case core.Record:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// cloneValue copies nested objects and slices so later merges into the
// copy never reach back into the caller's data.
func cloneValue(v any) any {
	if obj, ok := asObject(v); ok {
		out := make(map[string]any, len(obj))
		for k, val := range obj {
			out[k] = cloneValue(val)
		}
		return out
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, val := range list {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}
