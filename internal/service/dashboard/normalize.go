package dashboard

import (
	"encoding/json"
	"strconv"
)

// NormalizeList returns the list carried by an upstream payload. Upstreams answer
// either with a bare JSON array or with an object wrapping the array under field.
// Any other shape, or a missing field, yields an empty list.
func NormalizeList(value any, field string) []any {
	switch v := value.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v[field].([]any); ok {
			return list
		}
	}
	return []any{}
}

// asObject returns item as a JSON object; non-objects read as empty
func asObject(item any) map[string]any {
	obj, _ := item.(map[string]any)
	return obj
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// asNumber reports whether v holds a JSON number
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) float64 {
	f, _ := asNumber(v)
	return f
}

func asInt(v any) int64 {
	return int64(asFloat(v))
}
