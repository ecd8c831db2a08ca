package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToString converts various types to string.
// Nil becomes the empty string and floats are rendered without exponent so that
// JSON numbers such as epoch milliseconds survive the round trip.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dig walks a decoded JSON document using a dot separated path
// ("os.name", "assigned_to.id") and returns nil when any segment is missing.
func Dig(doc map[string]any, path string) any {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// DigString is Dig followed by ToString with surrounding whitespace removed.
func DigString(doc map[string]any, path string) string {
	return strings.TrimSpace(ToString(Dig(doc, path)))
}

// FirstString returns the first non-empty string found under the given paths.
func FirstString(doc map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := DigString(doc, p); s != "" {
			return s
		}
	}
	return ""
}
