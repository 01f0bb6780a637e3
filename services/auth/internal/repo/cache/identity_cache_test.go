package cache

import (
	"context"
	"testing"
	"time"

	"authkit/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewIdentityCache(client, ttl), mr
}

func TestIdentityCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "acc-1", models.RoleAdmin))

	role, ok, err := c.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestIdentityCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "acc-1", models.RoleCreator))
	assert.Equal(t, time.Minute, mr.TTL("identity:acc-1"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "acc-1", models.RoleMember))
	require.NoError(t, c.Invalidate(ctx, "acc-1"))

	_, ok, err := c.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCache_IgnoresGarbage(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("identity:acc-1", "superuser"))

	_, ok, err := c.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), "acc-1")
	assert.Error(t, err)
}
