package validation

import (
	"testing"
)

func TestIsValidTronAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", true},
		{"TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7", true},

		// Invalid cases
		{"", false},
		{"T", false},
		{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj", false},     // Too short
		{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t7", false},  // Too long
		{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj0O", false},   // Non-base58 chars
		{"0x1234567890123456789012345678901234567890", false},
		{"AR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", false}, // Wrong prefix
	}

	for _, tc := range tests {
		result := IsValidTronAddress(tc.addr)
		if result != tc.valid {
			t.Errorf("IsValidTronAddress(%q) = %v, want %v", tc.addr, result, tc.valid)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"  hello  ", 10, "hello"},
		{"hello world", 5, "hello"},
		{"hello\x00world", 20, "helloworld"},
	}

	for _, tc := range tests {
		result := SanitizeString(tc.input, tc.maxLen)
		if result != tc.expected {
			t.Errorf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, result, tc.expected)
		}
	}
}
