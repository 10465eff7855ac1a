package uniqid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("requested length", func(t *testing.T) {
		for _, n := range []int{1, 8, 32, 128} {
			s, err := Generate(n)
			require.NoError(t, err)
			assert.Len(t, s, n)
		}
	})

	t.Run("alphabet only", func(t *testing.T) {
		s, err := Generate(256)
		require.NoError(t, err)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
		}
	})

	t.Run("non positive length", func(t *testing.T) {
		_, err := Generate(0)
		assert.Error(t, err)
	})

	t.Run("values differ", func(t *testing.T) {
		a, err := Generate(32)
		require.NoError(t, err)
		b, err := Generate(32)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestUniqueID(t *testing.T) {
	a := UniqueID()
	b := UniqueID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
