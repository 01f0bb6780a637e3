package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authkit/pkg/models"

	"github.com/redis/go-redis/v9"
)

const identityKeyPrefix = "identity:"

// IdentityCache remembers the role of recently authenticated accounts.
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	return &IdentityCache{client: client, ttl: ttl}
}

func identityKey(accountID string) string {
	return identityKeyPrefix + accountID
}

// Get reports ok=false on a miss.
func (c *IdentityCache) Get(ctx context.Context, accountID string) (models.Role, bool, error) {
	val, err := c.client.Get(ctx, identityKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("identity cache get: %w", err)
	}

	role, err := models.ParseRole(val)
	if err != nil {
		return "", false, nil
	}
	return role, true, nil
}

func (c *IdentityCache) Set(ctx context.Context, accountID string, role models.Role) error {
	if err := c.client.Set(ctx, identityKey(accountID), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("identity cache set: %w", err)
	}
	return nil
}

func (c *IdentityCache) Invalidate(ctx context.Context, accountID string) error {
	if err := c.client.Del(ctx, identityKey(accountID)).Err(); err != nil {
		return fmt.Errorf("identity cache invalidate: %w", err)
	}
	return nil
}
