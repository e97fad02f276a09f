package docstore

import (
	"math"
	"time"
)

// String returns data[key] when it is a string.
func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// Int returns data[key] as an int when it holds a whole number.
func Int(data map[string]any, key string) (int, bool) {
	switch v := data[key].(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case int32:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

// Float returns data[key] as a float64 when it holds a number.
func Float(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Time returns data[key] when it holds a timestamp.
func Time(data map[string]any, key string) (time.Time, bool) {
	t, ok := data[key].(time.Time)
	return t, ok
}

// Strings returns the string elements of an array field.
func Strings(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Maps returns the map elements of an array field.
func Maps(data map[string]any, key string) []map[string]any {
	switch v := data[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// RefValue returns data[key] when it holds a document reference.
func RefValue(data map[string]any, key string) (Ref, bool) {
	switch v := data[key].(type) {
	case Ref:
		return v, v.Path != ""
	case *Ref:
		if v != nil && v.Path != "" {
			return *v, true
		}
	}
	return Ref{}, false
}
