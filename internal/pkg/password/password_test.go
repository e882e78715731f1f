package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmate/internal/pkg/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, password.Verify("correct horse battery", hash))
	assert.False(t, password.Verify("wrong password", hash))
}

func TestHashToken(t *testing.T) {
	a := password.HashToken("token-a")
	b := password.HashToken("token-b")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, password.HashToken("token-a"))
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, password.ValidatePassword("short"))
	assert.True(t, password.ValidatePassword("longenough"))
}
