package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"wheels/models"
)

// ProfileLoader is the source of truth for display names.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Names resolves user ids to display names through a bounded in-process
// LRU, then Redis (when configured), then the profile store.
type Names struct {
	local  *expirable.LRU[string, string]
	rdb    *redis.Client
	loader ProfileLoader
	ttl    time.Duration
}

func NewNames(size int, ttl time.Duration, rdb *redis.Client, loader ProfileLoader) *Names {
	if size <= 0 {
		size = 1024
	}
	return &Names{
		local:  expirable.NewLRU[string, string](size, nil, ttl),
		rdb:    rdb,
		loader: loader,
		ttl:    ttl,
	}
}

func nameKey(id string) string { return fmt.Sprintf("names:%s", id) }

// Get returns the display name for id. A user without a profile resolves
// to "" without error.
func (n *Names) Get(ctx context.Context, id string) (string, error) {
	if name, ok := n.local.Get(id); ok {
		return name, nil
	}

	if n.rdb != nil {
		name, err := n.rdb.Get(ctx, nameKey(id)).Result()
		if err == nil {
			n.local.Add(id, name)
			return name, nil
		}
		if !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("redis get name: %w", err)
		}
	}

	p, err := n.loader.GetProfile(ctx, id)
	if errors.Is(err, models.ErrProfileNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	n.local.Add(id, p.Name)
	if n.rdb != nil {
		if err := n.rdb.Set(ctx, nameKey(id), p.Name, n.ttl).Err(); err != nil {
			return p.Name, fmt.Errorf("redis set name: %w", err)
		}
	}
	return p.Name, nil
}

// Invalidate drops id from both cache tiers.
func (n *Names) Invalidate(ctx context.Context, id string) error {
	n.local.Remove(id)
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Del(ctx, nameKey(id)).Err()
}

func (n *Names) Len() int { return n.local.Len() }
