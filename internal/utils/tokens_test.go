package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "alice@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	id := VerifyAccessToken(testSecret, tok.Token)
	require.NotNil(t, id)
	assert.Equal(t, uint64(42), id.UserID)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 1, "a@b.c", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, VerifyAccessToken("another-secret-that-is-long-enough!!", tok.Token))
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 1, "a@b.c", -time.Minute)
	require.NoError(t, err)
	assert.Nil(t, VerifyAccessToken(testSecret, tok.Token))
}

func TestVerifyAccessToken_Malformed(t *testing.T) {
	assert.Nil(t, VerifyAccessToken(testSecret, ""))
	assert.Nil(t, VerifyAccessToken(testSecret, "not.a.jwt"))
	assert.Nil(t, VerifyAccessToken(testSecret, "aaaa.bbbb.cccc"))
}

func TestNewRefreshSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		raw, err := NewRefreshSecret()
		require.NoError(t, err)
		assert.Len(t, raw, 96) // 48 random bytes, hex encoded
		assert.False(t, seen[raw], "refresh secrets must not collide")
		seen[raw] = true
	}
}

func TestHashRefreshSecret_Deterministic(t *testing.T) {
	raw, err := NewRefreshSecret()
	require.NoError(t, err)

	h1 := HashRefreshSecret(raw)
	h2 := HashRefreshSecret(raw)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex SHA-256
	assert.NotEqual(t, raw, h1)

	other, err := NewRefreshSecret()
	require.NoError(t, err)
	assert.NotEqual(t, h1, HashRefreshSecret(other))
}
