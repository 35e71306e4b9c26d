package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// item 包装缓存数据和过期时间
type item struct {
	data      []byte
	expiresAt time.Time
}

// LRU is a bounded in-process store with per-key TTL.
type LRU struct {
	cache *lru.Cache[string, item]
	now   func() time.Time
}

func NewLRU(size int) (*LRU, error) {
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU{cache: l, now: time.Now}, nil
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(val.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return val.data, true
}

func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.cache.Add(key, item{data: value, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *LRU) Delete(_ context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}

func (c *LRU) DeletePrefix(_ context.Context, prefix string) error {
	for _, k := range c.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Remove(k)
		}
	}
	return nil
}

func (c *LRU) Len() int {
	return c.cache.Len()
}
