// internal/pkg/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/jewelry-storefront/internal/config"
)

func testJWTManager() *JWTManager {
	return NewJWTManager(&config.Config{
		App: config.AppConfig{Name: "Jewelry Storefront"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-0123",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testJWTManager()

	token, err := m.GenerateAccessToken(42, "a@example.com", true)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := testJWTManager()

	token, err := m.GenerateRefreshToken(42, "a@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin, "refresh tokens never carry admin status")
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := testJWTManager().GenerateAccessToken(42, "a@example.com", false)
	require.NoError(t, err)

	other := NewJWTManager(&config.Config{
		JWT: config.JWTConfig{Secret: "a-different-secret-key-0123456789abcdef"},
	})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", ExtractTokenFromHeader("Bearer abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromHeader("abc.def.ghi"))
	assert.Empty(t, ExtractTokenFromHeader(""))
	assert.Empty(t, ExtractTokenFromHeader("Bearer "))
}
