package lang

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Stringify renders a resolved value in its canonical string form, the
// form used when concatenating interpolations into surrounding text:
// nil is "null", bools are lowercase, ints base 10, floats in their
// shortest form with "inf" and "nan" spelled lowercase, and containers
// in bracketed literal form with their strings single-quoted.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case float64:
		return formatFloat(val)

	case string:
		return val

	case []any:
		return formatSlice(val)

	case map[any]any:
		return formatDict(val)

	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// formatInner renders a value nested inside a container literal, where
// strings carry quotes so the rendering stays unambiguous.
func formatInner(v any) string {
	s, ok := v.(string)
	if !ok {
		return Stringify(v)
	}

	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func formatSlice(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatInner(v)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// formatDict renders a dict literal with entries sorted by rendered
// key, so equal dicts always render identically.
func formatDict(m map[any]any) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, formatInner(k)+": "+formatInner(v))
	}

	sort.Strings(parts)

	return "{" + strings.Join(parts, ", ") + "}"
}
