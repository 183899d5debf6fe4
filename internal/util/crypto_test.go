package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHmacSHA256(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		result := HmacSHA256("secret", "data")
		assert.Len(t, result, 64)
	})

	t.Run("same inputs produce same result", func(t *testing.T) {
		result1 := HmacSHA256("secret", "data")
		result2 := HmacSHA256("secret", "data")
		assert.Equal(t, result1, result2)
	})

	t.Run("different secret produces different result", func(t *testing.T) {
		result1 := HmacSHA256("secret1", "data")
		result2 := HmacSHA256("secret2", "data")
		assert.NotEqual(t, result1, result2)
	})

	t.Run("different data produces different result", func(t *testing.T) {
		result1 := HmacSHA256("secret", "data1")
		result2 := HmacSHA256("secret", "data2")
		assert.NotEqual(t, result1, result2)
	})
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.True(t, ConstantTimeEqual("", ""))
}

func TestMaskIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{"long id keeps two leading characters", "123456789", "12***"},
		{"short id fully masked", "12", "***"},
		{"empty id fully masked", "", "***"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaskIdentifier(tc.id))
		})
	}
}
