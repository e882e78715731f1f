package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmate/internal/pkg/jwt"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := jwt.GenerateAccessToken(42, "alice", "LIBRARIAN", secret, 15)
	require.NoError(t, err)

	claims, err := jwt.ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "LIBRARIAN", claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := jwt.GenerateAccessToken(42, "alice", "STUDENT", secret, 15)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestExpiredAccessToken(t *testing.T) {
	token, err := jwt.GenerateAccessToken(42, "alice", "STUDENT", secret, -1)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := jwt.GenerateRefreshToken(7, "token-id-1", secret, 30)
	require.NoError(t, err)

	claims, err := jwt.ValidateRefreshToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "token-id-1", claims.TokenID)

	// Access and refresh claims are not interchangeable even with the same
	// secret, the claim shapes differ.
	_, err = jwt.ValidateRefreshToken("not-a-token", secret)
	assert.Error(t, err)
}
