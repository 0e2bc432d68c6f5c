package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Devices keeps the push tokens registered per user. Tokens live in the
// Redis set devices:<userID>; without Redis they are kept in memory.
type Devices struct {
	rdb *redis.Client

	mu  sync.Mutex
	mem map[string]map[string]struct{}
}

func NewDevices(rdb *redis.Client) *Devices {
	return &Devices{rdb: rdb, mem: map[string]map[string]struct{}{}}
}

func deviceKey(userID string) string { return fmt.Sprintf("devices:%s", userID) }

func (d *Devices) Register(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return errors.New("user id and token are required")
	}
	if d.rdb != nil {
		return d.rdb.SAdd(ctx, deviceKey(userID), token).Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem[userID] == nil {
		d.mem[userID] = map[string]struct{}{}
	}
	d.mem[userID][token] = struct{}{}
	return nil
}

func (d *Devices) Remove(ctx context.Context, userID, token string) error {
	if d.rdb != nil {
		return d.rdb.SRem(ctx, deviceKey(userID), token).Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.mem[userID], token)
	return nil
}

func (d *Devices) Tokens(ctx context.Context, userID string) ([]string, error) {
	if d.rdb != nil {
		return d.rdb.SMembers(ctx, deviceKey(userID)).Result()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	tokens := make([]string, 0, len(d.mem[userID]))
	for t := range d.mem[userID] {
		tokens = append(tokens, t)
	}
	return tokens, nil
}
