// Package structured extracts JSON values from free-text provider replies.
//
// Providers are asked to answer in JSON but routinely wrap the payload in
// explanatory prose or a fenced code block. Parse tolerates both; it performs
// no schema validation, callers read expected keys defensively.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput is returned when no JSON value can be decoded from the
// reply.
var ErrMalformedOutput = errors.New("malformed structured output")

// Parse extracts a single JSON value from raw provider text. A fenced block
// tagged as JSON wins; otherwise the first fenced block; otherwise the raw
// text itself.
func Parse(raw string) (any, error) {
	candidate := extractCandidate(raw)

	var value any

	err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, err)
	}

	return value, nil
}

// ParseInto decodes the extracted JSON into dst, for callers with a known
// target shape.
func ParseInto(raw string, dst any) error {
	candidate := extractCandidate(raw)

	err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), dst)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedOutput, err)
	}

	return nil
}

func extractCandidate(raw string) string {
	if inner, ok := fencedBlock(raw, "```json"); ok {
		return inner
	}

	if inner, ok := fencedBlock(raw, "```"); ok {
		return inner
	}

	return raw
}

// fencedBlock returns the interior of the first fenced block opened by the
// given delimiter.
func fencedBlock(raw, open string) (string, bool) {
	start := strings.Index(raw, open)
	if start < 0 {
		return "", false
	}

	inner := raw[start+len(open):]

	end := strings.Index(inner, "```")
	if end < 0 {
		// Unterminated fence; take everything after the opener.
		return inner, true
	}

	return inner[:end], true
}

// Map coerces a parsed value into an object, degrading to an empty map.
func Map(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}

	return map[string]any{}
}

// Slice coerces a parsed value into a list, degrading to nil.
func Slice(value any) []any {
	if s, ok := value.([]any); ok {
		return s
	}

	return nil
}

// StringField reads a string key from an object, degrading to empty.
func StringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

// StringsField reads a list-of-strings key from an object, skipping entries
// of any other type.
func StringsField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))

	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// MapField reads an object key from an object, degrading to an empty map.
func MapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}

	return map[string]any{}
}

// SliceField reads a list key from an object, degrading to nil.
func SliceField(m map[string]any, key string) []any {
	if v, ok := m[key].([]any); ok {
		return v
	}

	return nil
}
