package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "pos:catalog:snapshot"

// Snapshot is the cached catalog payload. It only seeds the session when the
// catalog service is unreachable at startup; pricing correctness never
// depends on it.
type Snapshot struct {
	Products   []Product          `json:"products"`
	Categories []CategoryDiscount `json:"categories"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

// Cache stores catalog snapshots in Redis with a bounded TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client yields a no-op cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Store serialises the snapshot. Failures are returned for logging only.
func (c *Cache) Store(ctx context.Context, snap Snapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}

// Load returns the cached snapshot and whether one existed.
func (c *Cache) Load(ctx context.Context) (Snapshot, bool, error) {
	if c == nil || c.client == nil {
		return Snapshot{}, false, nil
	}
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}
