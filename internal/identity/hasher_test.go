package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher(t *testing.T) {
	h := NewHasher("test-hash-key")

	t.Run("is deterministic across calls", func(t *testing.T) {
		assert.Equal(t, h.Hash("111"), h.Hash("111"))
	})

	t.Run("returns 64 character hex digest", func(t *testing.T) {
		digest := h.Hash("111")
		assert.Len(t, digest, 64)
		assert.Regexp(t, "^[0-9a-f]+$", digest)
	})

	t.Run("different inputs produce different digests", func(t *testing.T) {
		assert.NotEqual(t, h.Hash("111"), h.Hash("112"))
	})

	t.Run("different keys produce different digests", func(t *testing.T) {
		other := NewHasher("another-hash-key")
		assert.NotEqual(t, h.Hash("111"), other.Hash("111"))
	})

	t.Run("never echoes the input", func(t *testing.T) {
		assert.NotContains(t, h.Hash("4242424242"), "4242424242")
	})
}

func TestHashInt64(t *testing.T) {
	h := NewHasher("test-hash-key")

	t.Run("matches decimal string rendering", func(t *testing.T) {
		assert.Equal(t, h.Hash("111"), h.HashInt64(111))
	})

	t.Run("handles negative channel-style ids", func(t *testing.T) {
		assert.Equal(t, h.Hash("-1001234"), h.HashInt64(-1001234))
	})
}
