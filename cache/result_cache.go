package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "sc2mp3:result:"

// Entry is what a successful download leaves behind for later requests of
// the same URL.
type Entry struct {
	TrackID  string `json:"track_id"`
	Title    string `json:"title"`
	CoverURL string `json:"cover_url,omitempty"`
	CoverExt string `json:"cover_ext,omitempty"`
}

// ResultCache remembers recent successful downloads by source URL.
type ResultCache interface {
	// Lookup returns nil, nil on a miss.
	Lookup(ctx context.Context, url string) (*Entry, error)
	Store(ctx context.Context, url string, entry Entry) error
}

// RedisResultCache stores entries as JSON strings with a TTL that must stay
// below the retention age, so an entry never outlives its files for long.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache creates a RedisResultCache.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

func resultKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return resultKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisResultCache) Lookup(ctx context.Context, url string) (*Entry, error) {
	raw, err := c.client.Get(ctx, resultKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached result: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &entry, nil
}

func (c *RedisResultCache) Store(ctx context.Context, url string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, resultKey(url), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached result: %w", err)
	}
	return nil
}
