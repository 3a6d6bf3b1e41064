package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("expired jwt", func(t *testing.T) {
		token := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
		assert.True(t, TokenExpired(token, now))
	})

	t.Run("valid jwt", func(t *testing.T) {
		token := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
		assert.False(t, TokenExpired(token, now))
	})

	t.Run("jwt without exp", func(t *testing.T) {
		token := signed(t, jwt.RegisteredClaims{Subject: "u1"})
		assert.False(t, TokenExpired(token, now))
	})

	t.Run("opaque token", func(t *testing.T) {
		assert.False(t, TokenExpired("opaque-session-value", now))
		assert.False(t, TokenExpired("", now))
	})
}
