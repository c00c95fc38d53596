package core

import (
	"errors"
	"testing"
)

// TestNewClientKeyUniqueness tests that NewClientKey generates unique keys
func TestNewClientKeyUniqueness(t *testing.T) {
	const numKeys = 1000

	keys := make(map[ClientKey]bool, numKeys)
	for i := 0; i < numKeys; i++ {
		key := NewClientKey()
		if key.IsEmpty() {
			t.Errorf("Generated empty key at iteration %d", i)
		}
		if keys[key] {
			t.Errorf("Generated duplicate key: %s", key)
		}
		keys[key] = true
	}
}

// TestNewRequestID tests request id generation
func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == "" || a == b {
		t.Errorf("Expected distinct non-empty request IDs, got %q and %q", a, b)
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	tests := []struct {
		input    string
		expected SessionID
		hasError bool
	}{
		{"abc-123", SessionID("abc-123"), false},
		{"  padded  ", SessionID("padded"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseSessionID(test.input)
		if test.hasError && !errors.Is(err, ErrInvalidID) {
			t.Errorf("Expected ErrInvalidID for input '%s', got %v", test.input, err)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestSessionIDIsEmpty tests emptiness check
func TestSessionIDIsEmpty(t *testing.T) {
	if !SessionID("").IsEmpty() || !SessionID("  ").IsEmpty() {
		t.Error("Expected blank session IDs to be empty")
	}
	if SessionID("s1").IsEmpty() {
		t.Error("Expected non-blank session ID to not be empty")
	}
}
