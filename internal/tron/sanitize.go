package tron

import "strings"

// sensitiveKeyParts are substrings that mark a telemetry key as secret
// material. Matching is case-insensitive and applies at every nesting level.
var sensitiveKeyParts = []string{"private", "secret", "seed", "mnemonic", "password"}

// Sanitize returns a deep copy of the telemetry document with every
// sensitive-looking key removed, recursing through nested maps and slices.
// The original document is left untouched. This is a security contract:
// assessment output must never echo key material an upstream API leaks.
func Sanitize(payload Telemetry) Telemetry {
	cleaned, _ := sanitizeValue(map[string]any(payload)).(map[string]any)
	return cleaned
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if sensitiveKey(k) {
				continue
			}
			out[k] = sanitizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = sanitizeValue(val)
		}
		return out
	default:
		return v
	}
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
