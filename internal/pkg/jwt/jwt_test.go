package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", "user", testSecret, 30)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "libralend", claims.Issuer)
}

func TestValidateAccessToken(t *testing.T) {
	t.Run("rejects wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "alice", "user", testSecret, 30)
		require.NoError(t, err)

		_, err = ValidateAccessToken(token, "wrong-secret")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "alice", "user", testSecret, -1)
		require.NoError(t, err)

		_, err = ValidateAccessToken(token, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ValidateAccessToken("not-a-jwt", testSecret)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("refresh token carries no identity claims", func(t *testing.T) {
		token, err := GenerateRefreshToken(1, "tid", testSecret, 7)
		require.NoError(t, err)

		claims, err := ValidateAccessToken(token, testSecret)
		require.NoError(t, err)
		assert.Empty(t, claims.Username)
		assert.Empty(t, claims.Role)
	})
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testRefreshSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "token-id-1", claims.TokenID)
}

func TestRefreshTokenExpiry(t *testing.T) {
	token, err := GenerateRefreshToken(1, "tid", testRefreshSecret, -1)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(token, testRefreshSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
