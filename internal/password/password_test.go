package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	// コスト4（最小値）でテストを高速化する
	return NewHasher(bcrypt.MinCost)
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	h := newTestHasher()

	for _, plaintext := range []string{"secret1", "abc123", "パスワード", "p@ss word!"} {
		hash, err := h.Hash(plaintext)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"), "hash should be a self-describing bcrypt token: %s", hash)
		assert.True(t, h.Verify(plaintext, hash))
		assert.False(t, h.Verify(plaintext+"x", hash))
	}
}

func TestHashProducesFreshSaltPerCall(t *testing.T) {
	h := newTestHasher()

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("secret1", first))
	assert.True(t, h.Verify("secret1", second))
}

func TestVerifyAgainstOtherPasswordHash(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("other12")
	require.NoError(t, err)
	assert.False(t, h.Verify("secret1", hash))
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	h := newTestHasher()

	for _, malformed := range []string{"", "not-a-hash", "$2a$break", "plaintext-in-db"} {
		assert.False(t, h.Verify("secret1", malformed), "malformed hash %q must verify as false", malformed)
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash("")
	assert.Error(t, err)
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}
