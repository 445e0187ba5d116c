package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		assert.Len(t, NewKey(6), 6)
		assert.Len(t, NewKey(32), 32)
	})

	t.Run("alphanumeric only", func(t *testing.T) {
		key := NewKey(64)
		for _, r := range key {
			assert.Contains(t, alphabet, string(r))
		}
	})

	t.Run("keys differ", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key := NewKey(6)
			assert.False(t, seen[key], "duplicate key %q", key)
			seen[key] = true
		}
	})
}
