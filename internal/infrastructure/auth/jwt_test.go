package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hospital-erp/backend/internal/domain/identity"
	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "hospital-erp-test",
	})
}

func newTestUser() *identity.User {
	dept := int64(4)
	return &identity.User{
		Username:     "nurse.kim",
		Role:         identity.RoleStaff,
		DepartmentID: &dept,
	}
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	u := newTestUser()
	u.ID = 12

	token, err := svc.GenerateToken(u)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 5*time.Second)

	t.Run("claims round trip", func(t *testing.T) {
		claims, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int64(12), claims.UserID)
		assert.Equal(t, "nurse.kim", claims.Username)
		assert.Equal(t, "Staff", claims.Role)
		require.NotNil(t, claims.DepartmentID)
		assert.Equal(t, int64(4), *claims.DepartmentID)
		assert.NotEmpty(t, claims.ID)
		assert.Greater(t, claims.GetRemainingTTL(), time.Duration(0))
	})

	t.Run("unsaved user is rejected", func(t *testing.T) {
		_, err := svc.GenerateToken(newTestUser())
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestValidateToken(t *testing.T) {
	svc := newTestJWTService()
	u := newTestUser()
	u.ID = 3

	t.Run("expired token", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateToken(u)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-32-characters!", AccessTokenExpiration: time.Minute, Issuer: "hospital-erp-test"})
		token, err := other.GenerateToken(u)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", AccessTokenExpiration: time.Minute, Issuer: "someone-else"})
		token, err := other.GenerateToken(u)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm is refused", func(t *testing.T) {
		claims := &Claims{UserID: 3, RegisteredClaims: jwt.RegisteredClaims{Issuer: "hospital-erp-test"}}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
