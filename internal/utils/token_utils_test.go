package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseJWT(t *testing.T) {
	secret := "test-secret-key-that-is-long-enough"
	userID := "user-123"

	token, err := GenerateJWT(userID, secret, time.Hour, "ema-test")
	assert.NoError(t, err, "Generating a token should not fail")
	assert.NotEmpty(t, token, "Token should not be empty")

	claims, err := ParseAndValidateJWT(token, secret)
	assert.NoError(t, err, "Parsing a freshly issued token should not fail")
	assert.Equal(t, userID, claims.Subject, "Subject should carry the user ID")
	assert.Equal(t, "ema-test", claims.Issuer, "Issuer should round-trip")
	assert.True(t, claims.ExpiresAt.After(time.Now()), "Expiry should be in the future")
}

func TestParseAndValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-123", "the-right-secret", time.Hour, "ema-test")
	assert.NoError(t, err)

	_, err = ParseAndValidateJWT(token, "the-wrong-secret")
	assert.Error(t, err, "A token signed with a different secret must be rejected")
}

func TestParseAndValidateJWT_Expired(t *testing.T) {
	secret := "test-secret-key-that-is-long-enough"
	token, err := GenerateJWT("user-123", secret, -time.Minute, "ema-test")
	assert.NoError(t, err)

	_, err = ParseAndValidateJWT(token, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired, "An expired token must be rejected")
}

func TestHashRefreshToken(t *testing.T) {
	raw, err := GenerateSecureRandomString(32)
	assert.NoError(t, err)
	assert.Len(t, raw, 64, "32 random bytes hex encode to 64 characters")

	hash := HashRefreshToken(raw)
	assert.NotEqual(t, raw, hash, "Stored value must not be the raw token")
	assert.True(t, CompareRefreshTokenHash(raw, hash), "Raw token should match its own hash")
	assert.False(t, CompareRefreshTokenHash("different-token", hash), "Other tokens must not match")
}
