package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// PermissionRepository reads capability grants from user_capabilities.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository constructs repository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// PermissionsForUser implements auth.PermissionLookup.
func (r *PermissionRepository) PermissionsForUser(ctx context.Context, userID int64) (auth.PermissionSet, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT capability_id FROM user_capabilities WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return auth.NewPermissionSet(ids...), nil
}

// Grant adds capabilities to a user.
func (r *PermissionRepository) Grant(ctx context.Context, userID int64, caps ...auth.Capability) error {
	for _, c := range caps {
		if _, err := conn(ctx, r.pool).Exec(ctx,
			`INSERT INTO user_capabilities (user_id, capability_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			userID, int(c)); err != nil {
			return err
		}
	}
	return nil
}

// CachedPermissionLookup fronts another lookup with a Redis cache.
type CachedPermissionLookup struct {
	next      auth.PermissionLookup
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewCachedPermissionLookup wraps next, storing entries under namespace. A nil
// client or zero ttl disables caching.
func NewCachedPermissionLookup(next auth.PermissionLookup, client *redis.Client, namespace string, ttl time.Duration, logger *zap.Logger) *CachedPermissionLookup {
	return &CachedPermissionLookup{next: next, client: client, namespace: namespace, ttl: ttl, logger: logger}
}

func (c *CachedPermissionLookup) key(userID int64) string {
	return fmt.Sprintf("%s:%d", c.namespace, userID)
}

// PermissionsForUser implements auth.PermissionLookup. Cache failures fall
// through to the wrapped lookup.
func (c *CachedPermissionLookup) PermissionsForUser(ctx context.Context, userID int64) (auth.PermissionSet, error) {
	if c.client == nil || c.ttl <= 0 {
		return c.next.PermissionsForUser(ctx, userID)
	}

	key := c.key(userID)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var ids []int
		if err := json.Unmarshal(raw, &ids); err == nil {
			return auth.NewPermissionSet(ids...), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("permission cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	perms, err := c.next.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(perms.IDs())
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("permission cache write failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return perms, nil
}

// Invalidate drops the cached set for userID.
func (c *CachedPermissionLookup) Invalidate(ctx context.Context, userID int64) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(userID)).Err()
}
