package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errRoleNotCached = errors.New("role not cached")

// roleCacheTTL is short on purpose: a revoked admin loses access within a
// minute even if the cache entry is never invalidated.
const roleCacheTTL = time.Minute

// nonAdminMarker caches negative lookups too, the storefront checks the
// admin flag on every page load.
const nonAdminMarker = "none"

// RoleCache caches the admin role per user between Postgres lookups.
type RoleCache interface {
	Get(ctx context.Context, userID uuid.UUID) (AdminRole, bool, error)
	Set(ctx context.Context, userID uuid.UUID, role AdminRole, isAdmin bool) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type RedisRoleCache struct {
	client *redis.Client
}

func NewRedisRoleCache(client *redis.Client) *RedisRoleCache {
	return &RedisRoleCache{client: client}
}

func (c *RedisRoleCache) Get(ctx context.Context, userID uuid.UUID) (AdminRole, bool, error) {
	val, err := c.client.Get(ctx, roleKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, errRoleNotCached
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached role: %w", err)
	}
	if val == nonAdminMarker {
		return "", false, nil
	}
	return AdminRole(val), true, nil
}

func (c *RedisRoleCache) Set(ctx context.Context, userID uuid.UUID, role AdminRole, isAdmin bool) error {
	val := nonAdminMarker
	if isAdmin {
		val = string(role)
	}
	if err := c.client.Set(ctx, roleKey(userID), val, roleCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache role: %w", err)
	}
	return nil
}

func (c *RedisRoleCache) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, roleKey(userID)).Err(); err != nil {
		return fmt.Errorf("drop cached role: %w", err)
	}
	return nil
}

func roleKey(userID uuid.UUID) string {
	return fmt.Sprintf("admin-role:%s", userID)
}
