package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	t.Run("revoked jti is reported", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, "jti-1", time.Hour))

		revoked, err := bl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = bl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("entry lapses after its ttl", func(t *testing.T) {
		now := time.Now()
		bl.now = func() time.Time { return now }
		require.NoError(t, bl.Revoke(ctx, "short", time.Minute))

		now = now.Add(2 * time.Minute)
		revoked, err := bl.IsRevoked(ctx, "short")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestInMemoryTokenBlacklist_RevokeUser(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.RevokeUser(ctx, 7, time.Hour))

	t.Run("older tokens are rejected", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, 7, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("tokens issued later are accepted", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, 7, now.Add(2*time.Second))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("other users are unaffected", func(t *testing.T) {
		revoked, err := bl.IsUserRevoked(ctx, 8, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
