package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password", MinBcryptCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, VerifyPassword(hash, "s3cret-password"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("same-input", MinBcryptCost)
	require.NoError(t, err)
	h2, err := HashPassword("same-input", MinBcryptCost)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "each hash embeds a fresh salt")
}

func TestHashPassword_CostFloor(t *testing.T) {
	// A cost below the floor must be raised, not honored.
	hash, err := HashPassword("pw-with-low-cost", 4)
	require.NoError(t, err)
	assert.Contains(t, hash, "$10$")
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("", "anything"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "anything"))
}
