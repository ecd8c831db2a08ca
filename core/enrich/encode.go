package enrich

import (
	"bytes"
	"strconv"
	"strings"

	"asset-sync/core/utils"

	"github.com/goccy/go-json"
)

// EncodeValue renders a decoded JSON value for a text column.
// Booleans become "1"/"0", scalars are stringified, empty containers are nil
// and other containers are JSON encoded.
func EncodeValue(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return FormatBoolean(val)
	case string:
		return &val
	case []any:
		if len(val) == 0 {
			return nil
		}
		return marshal(val)
	case map[string]any:
		if len(val) == 0 {
			return nil
		}
		return marshal(val)
	default:
		s := utils.ToString(val)
		return &s
	}
}

// FormatBoolean maps true/1/"1" to "1" and false/0/"0" to "0".
// Anything else is stringified as is.
func FormatBoolean(v any) *string {
	one, zero := "1", "0"
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		if val {
			return &one
		}
		return &zero
	case float64:
		if val == 1 {
			return &one
		}
		if val == 0 {
			return &zero
		}
	case int:
		if val == 1 {
			return &one
		}
		if val == 0 {
			return &zero
		}
	case string:
		if val == "1" {
			return &one
		}
		if val == "0" {
			return &zero
		}
	}
	s := utils.ToString(v)
	return &s
}

// FormatSimpleList joins the non-empty values with newlines.
func FormatSimpleList(values []any) *string {
	var lines []string
	for _, v := range values {
		if v == nil || v == "" {
			continue
		}
		if enc := EncodeValue(v); enc != nil {
			lines = append(lines, *enc)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return nil
	}
	s := strings.Join(lines, "\n")
	return &s
}

// FormatEnumeratedList renders one "n) value" line per item, n being the
// item's 1-based position. Items whose value is empty are left out but keep
// their number.
func FormatEnumeratedList[T any](items []T, value func(T) any) *string {
	var lines []string
	for i, item := range items {
		enc := EncodeValue(value(item))
		if enc == nil || *enc == "" {
			continue
		}
		lines = append(lines, strconv.Itoa(i+1)+") "+*enc)
	}
	if len(lines) == 0 {
		return nil
	}
	s := strings.Join(lines, "\n")
	return &s
}

func marshal(v any) *string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s := utils.ToString(v)
		return &s
	}
	s := strings.TrimSuffix(buf.String(), "\n")
	return &s
}
