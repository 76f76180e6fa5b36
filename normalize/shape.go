package normalize

import "strconv"

// shape converts maps keyed by the contiguous integers 0..n-1 into lists,
// recursively. Empty maps stay maps. Containers are copied, so trees
// returned by custom handlers are never modified.
func shape(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = shape(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = shape(item)
		}
		if list, ok := asList(out); ok {
			return list
		}
		return out
	default:
		return v
	}
}

// asList returns m as a list when its keys are exactly "0".."len(m)-1".
func asList(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	list := make([]any, len(m))
	for k, item := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || strconv.Itoa(i) != k {
			return nil, false
		}
		list[i] = item
	}
	return list, true
}
