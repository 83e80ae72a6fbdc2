package common

// ToPointer is a helper function to create a pointer to a value.
// x := &5 doesn't compile
// x := ToPointer(5) good.
func ToPointer[T any](p T) *T {
	return &p
}

// CopyMap makes a deep copy of a json object map. Nested maps and slices are copied too.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return CopyMap(vv)
	case []any:
		s := make([]any, len(vv))
		for i := range vv {
			s[i] = copyValue(vv[i])
		}
		return s
	default:
		return v
	}
}
