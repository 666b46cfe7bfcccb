package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	t.Run("unknown jti is not blacklisted", func(t *testing.T) {
		revoked, err := bl.IsBlacklisted(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("added jti is blacklisted", func(t *testing.T) {
		require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))

		revoked, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("entries expire", func(t *testing.T) {
		require.NoError(t, bl.AddToBlacklist(ctx, "jti-2", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		revoked, err := bl.IsBlacklisted(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestTokenBlacklist_Interface(t *testing.T) {
	var _ TokenBlacklist = NewInMemoryTokenBlacklist()
	var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)
}
