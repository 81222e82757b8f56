package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/pkg/config"
)

func tokenFixture() *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "ttapp",
		Expiration: time.Hour,
	})
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := tokenFixture()

	signed, expiresAt, err := svc.IssueToken("u1", "Asha", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "ttapp", claims.Issuer)
}

func TestTokenServiceRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewTokenService(config.JWTConfig{Secret: "other", Expiration: time.Hour}).
		IssueToken("u1", "Asha", models.RoleStaff)
	require.NoError(t, err)

	_, err = tokenFixture().ValidateToken(signed)
	assert.Error(t, err)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret", Expiration: -time.Minute})

	signed, _, err := svc.IssueToken("u1", "Asha", models.RoleStaff)
	require.NoError(t, err)

	_, err = tokenFixture().ValidateToken(signed)
	assert.Error(t, err)
}

func TestTokenServiceRejectsUnexpectedAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokenFixture().ValidateToken(signed)
	assert.Error(t, err)
}
