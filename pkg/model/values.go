package model

import (
	"fmt"
	"strings"
)

// Values maps field names to draft values (string, bool or scalar).
type Values map[string]any

// Clone returns a shallow copy; draft values are scalars.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// String renders the value stored under key as a trimmed string.
func (v Values) String(key string) string {
	return Stringify(v[key])
}

// Has reports whether key holds a non-empty value.
func (v Values) Has(key string) bool {
	value, ok := v[key]
	return ok && !IsEmpty(value)
}

// IsEmpty reports whether value counts as missing for required-field checks.
// false is a present value for checkboxes.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	}
	return false
}

// Stringify formats a draft value for display and comparisons.
func Stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}
