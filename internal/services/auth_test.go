package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		sessionID := uuid.New()
		token, expiresAt, err := auth.IssueToken(sessionID)
		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))

		got, err := auth.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, sessionID, got)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, _, err := auth.IssueToken(uuid.New())
		require.NoError(t, err)

		other := NewAuthService("other-secret", time.Hour)
		_, err = other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := NewAuthService("test-secret", -time.Minute)
		token, _, err := expired.IssueToken(uuid.New())
		require.NoError(t, err)

		_, err = auth.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := auth.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
