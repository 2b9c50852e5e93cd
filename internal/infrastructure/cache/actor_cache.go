package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"go.uber.org/zap"
)

const (
	actorKeyPrefix  = "actor:"
	defaultActorTTL = 5 * time.Minute
)

// cachedActor is the JSON form stored under actor:<id>
type cachedActor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	Capabilities []string  `json:"capabilities"`
}

// RedisActorCache fronts an ActorResolver with a read-through Redis cache.
// Redis failures are logged and the call falls through to the wrapped resolver,
// so a Redis outage never blocks an operation. Missing actors are not cached.
type RedisActorCache struct {
	client *redis.Client
	next   identity.ActorResolver
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisActorCache creates a cache in front of next. A nil client disables caching.
func NewRedisActorCache(client *redis.Client, next identity.ActorResolver, ttl time.Duration, logger *zap.Logger) *RedisActorCache {
	if ttl <= 0 {
		ttl = defaultActorTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisActorCache{client: client, next: next, ttl: ttl, logger: logger}
}

// Resolve returns the cached actor or loads it from the wrapped resolver
func (c *RedisActorCache) Resolve(ctx context.Context, actorID uuid.UUID) (*identity.Actor, error) {
	if c.client == nil {
		return c.next.Resolve(ctx, actorID)
	}

	key := actorKeyPrefix + actorID.String()
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedActor
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			return cached.toActor(), nil
		}
		c.logger.Warn("discarding malformed actor cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("actor cache read failed", zap.String("key", key), zap.Error(err))
	}

	actor, err := c.next.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, actor)
	return actor, nil
}

// Invalidate drops the cached entry for an actor, e.g. after its capabilities change
func (c *RedisActorCache) Invalidate(ctx context.Context, actorID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, actorKeyPrefix+actorID.String()).Err()
}

func (c *RedisActorCache) store(ctx context.Context, key string, actor *identity.Actor) {
	caps := make([]string, len(actor.Capabilities))
	for i, cp := range actor.Capabilities {
		caps[i] = string(cp)
	}
	payload, err := json.Marshal(cachedActor{
		ID:           actor.ID,
		Name:         actor.Name,
		Active:       actor.Active,
		Capabilities: caps,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("actor cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (a cachedActor) toActor() *identity.Actor {
	caps := make([]identity.Capability, 0, len(a.Capabilities))
	for _, c := range a.Capabilities {
		if cp := identity.Capability(c); cp.IsValid() {
			caps = append(caps, cp)
		}
	}
	return &identity.Actor{ID: a.ID, Name: a.Name, Active: a.Active, Capabilities: caps}
}

var _ identity.ActorResolver = (*RedisActorCache)(nil)
