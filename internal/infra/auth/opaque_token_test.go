package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpaqueTokenGenerator_Generate(t *testing.T) {
	gen := NewOpaqueTokenGenerator()

	raw, hash, err := gen.Generate()
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Len(t, decoded, opaqueTokenBytes)

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, gen.Hash(raw))
	assert.NotEqual(t, raw, hash)
}

func TestOpaqueTokenGenerator_Unique(t *testing.T) {
	gen := NewOpaqueTokenGenerator()
	seen := make(map[string]struct{})

	for range 100 {
		raw, _, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[raw]
		require.False(t, dup)
		seen[raw] = struct{}{}
	}
}

func TestOpaqueTokenGenerator_HashKnownValue(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", NewOpaqueTokenGenerator().Hash("abc"))
}
