package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_Calculate(t *testing.T) {
	sum, err := New(SHA256).Calculate([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)
}

func TestHasher_Verify(t *testing.T) {
	h := New(SHA256)
	sum, err := h.Calculate([]byte("export"))
	require.NoError(t, err)

	ok, err := h.Verify([]byte("export"), sum)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify([]byte("tampered"), sum)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_UnsupportedAlgorithm(t *testing.T) {
	_, err := New(Algorithm("md4")).Calculate([]byte("x"))
	assert.Error(t, err)
}
