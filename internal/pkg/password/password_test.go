package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", hashed)

	assert.True(t, Verify("supersecret", hashed))
	assert.False(t, Verify("wrongpassword", hashed))
	assert.False(t, Verify("supersecret", "not-a-hash"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("supersecret")
	require.NoError(t, err)
	second, err := Hash("supersecret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-refresh-token")
	h2 := HashToken("some-refresh-token")
	h3 := HashToken("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
}
