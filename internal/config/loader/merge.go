package loader

// Merge combines layers into a new map. Tables merge key by key; any other
// value in a later layer replaces the earlier one. The layers are not
// modified and share nothing with the result.
func Merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for key, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[key] = cloneValue(v)
			continue
		}
		if cur, ok := dst[key].(map[string]any); ok {
			mergeInto(cur, sub)
		} else {
			dst[key] = Clone(sub)
		}
	}
}

// Clone returns a deep copy of m. Clone(nil) is nil.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, v := range m {
		out[key] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
