package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher("test-master-secret", "test-salt")
	require.NoError(t, err)

	ciphertext, nonce, err := c.Encrypt("sk_live_supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, ciphertext)
	assert.NotEmpty(t, nonce)
	assert.NotContains(t, ciphertext, "supersecret")

	plaintext, err := c.Decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, "sk_live_supersecret", plaintext)
}

func TestCipher_DistinctNonces(t *testing.T) {
	c, err := NewCipher("test-master-secret", "test-salt")
	require.NoError(t, err)

	_, nonce1, err := c.Encrypt("key")
	require.NoError(t, err)
	_, nonce2, err := c.Encrypt("key")
	require.NoError(t, err)
	assert.NotEqual(t, nonce1, nonce2)
}

func TestCipher_WrongKey(t *testing.T) {
	c1, err := NewCipher("secret-one", "salt")
	require.NoError(t, err)
	c2, err := NewCipher("secret-two", "salt")
	require.NoError(t, err)

	ciphertext, nonce, err := c1.Encrypt("api-key")
	require.NoError(t, err)

	_, err = c2.Decrypt(ciphertext, nonce)
	assert.Error(t, err)
}

func TestNewCipher_RequiresSecret(t *testing.T) {
	_, err := NewCipher("", "salt")
	assert.Error(t, err)
}
