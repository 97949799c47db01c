package revocation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var d Denylist = Noop{}
	require.NoError(t, d.Revoke(context.Background(), "jti", time.Minute))

	revoked, err := d.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisDenylist(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is required for redis tests")
	}

	ctx := context.Background()
	client, err := Connect(ctx, addr, os.Getenv("REDIS_TEST_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	d := NewRedisDenylist(client)
	id := uuid.NewString()

	revoked, err := d.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, id, time.Minute))
	revoked, err = d.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, keyPrefix+id).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)

	// already expired tokens are not stored
	other := uuid.NewString()
	require.NoError(t, d.Revoke(ctx, other, 0))
	revoked, err = d.IsRevoked(ctx, other)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://localhost:6379/not-a-db", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}
