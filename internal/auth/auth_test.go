package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, CheckPassword("secret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("secret")
	require.NoError(t, err)
	h2, err := HashPassword("secret")
	require.NoError(t, err)

	// Two hashes of the same password must differ (fresh salt each time).
	assert.NotEqual(t, h1, h2)
}
