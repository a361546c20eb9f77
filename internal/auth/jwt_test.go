package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(
		"access-secret", "refresh-secret",
		"bazaar", "bazaar",
		time.Minute*15, time.Hour*24,
	)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens("user-1", "a@b.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	tok, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "a@b.com", claims["email"])
	assert.Equal(t, "admin", claims["role"])

	refTok, err := a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	require.True(t, refTok.Valid)

	refClaims, ok := refTok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", refClaims["sub"])
	// refresh token carries only the subject
	assert.NotContains(t, refClaims, "role")
}

func TestAccessAndRefreshSecretsAreIndependent(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens("user-1", "a@b.com", "customer")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(refresh)
	assert.Error(t, err)

	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := newTestAuthenticator()
	other := NewJWTAuthenticator(
		"different-secret", "different-refresh",
		"bazaar", "bazaar",
		time.Minute*15, time.Hour*24,
	)

	access, _, err := a.GenerateTokens("user-1", "a@b.com", "customer")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	expired := NewJWTAuthenticator(
		"access-secret", "refresh-secret",
		"bazaar", "bazaar",
		-time.Minute, -time.Minute,
	)

	access, _, err := expired.GenerateTokens("user-1", "a@b.com", "customer")
	require.NoError(t, err)

	_, err = expired.ValidateAccessToken(access)
	assert.Error(t, err)
}
