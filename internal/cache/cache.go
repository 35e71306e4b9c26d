// Package cache stores serialized API responses for anonymous readers.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"saladoverflow/internal/log"
)

// Store is implemented by the in-process LRU and by Redis.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key prefixes, one per cached listing family.
const (
	PrefixPosts = "posts:"
	PrefixTags  = "tags:"
	PrefixUsers = "users:"
)

// GetJSON decodes a cached value into dst. A decode failure counts as a miss.
func GetJSON(ctx context.Context, s Store, key string, dst interface{}) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn.Printf("cache: drop undecodable key %s: %v", key, err)
		_ = s.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it. Errors are logged, never returned.
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := s.Set(ctx, key, raw, ttl); err != nil {
		log.Warn.Printf("cache: set %s: %v", key, err)
	}
}

// Invalidate drops every key under the given prefixes after a mutation.
func Invalidate(ctx context.Context, s Store, prefixes ...string) {
	for _, p := range prefixes {
		if err := s.DeletePrefix(ctx, p); err != nil {
			log.Warn.Printf("cache: invalidate %s: %v", p, err)
		}
	}
}
