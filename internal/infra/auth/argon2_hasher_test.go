package auth

import (
	"strings"
	"testing"

	"gatekeeper/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArgon2Params keeps hashing fast in tests.
var testArgon2Params = config.Argon2Config{
	MemoryKiB:   1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	hasher := newArgon2Hasher(testArgon2Params)

	hash, err := hasher.Hash("GoodPass1!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "GoodPass1!")
	assert.True(t, hasher.Verify("GoodPass1!", hash))
	assert.False(t, hasher.Verify("GoodPass1?", hash))
}

func TestArgon2Hasher_SaltIsRandomPerCall(t *testing.T) {
	hasher := newArgon2Hasher(testArgon2Params)

	first, err := hasher.Hash("GoodPass1!")
	require.NoError(t, err)
	second, err := hasher.Hash("GoodPass1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("GoodPass1!", first))
	assert.True(t, hasher.Verify("GoodPass1!", second))
}

func TestArgon2Hasher_VerifyRejectsMalformedHashes(t *testing.T) {
	hasher := newArgon2Hasher(testArgon2Params)

	valid, err := hasher.Hash("GoodPass1!")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	cases := map[string]string{
		"empty":          "",
		"bcrypt":         "$2a$10$abcdefghijklmnopqrstuu",
		"wrong version":  strings.Join([]string{"", "argon2id", "v=16", parts[3], parts[4], parts[5]}, "$"),
		"bad params":     strings.Join([]string{"", "argon2id", parts[2], "m=x,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt":       strings.Join([]string{"", "argon2id", parts[2], parts[3], "!!", parts[5]}, "$"),
		"oversized cost": strings.Join([]string{"", "argon2id", parts[2], "m=1048576,t=1,p=1", parts[4], parts[5]}, "$"),
	}

	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, hasher.Verify("GoodPass1!", hash))
		})
	}
}

func TestArgon2Hasher_VerifiesHashesFromCheaperSettings(t *testing.T) {
	cheap := newArgon2Hasher(testArgon2Params)
	hash, err := cheap.Hash("GoodPass1!")
	require.NoError(t, err)

	stronger := testArgon2Params
	stronger.Iterations = 2
	assert.True(t, newArgon2Hasher(stronger).Verify("GoodPass1!", hash))
}
