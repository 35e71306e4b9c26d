package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// Redis shares cached responses between server instances.
type Redis struct {
	client *redis.Client
}

// NewRedis parses a redis:// URL and verifies the connection.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.WithContext(ctx).Get(key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to a miss too
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.WithContext(ctx).Set(key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	err := r.client.WithContext(ctx).Del(key).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	c := r.client.WithContext(ctx)
	var cursor uint64
	for {
		keys, next, err := c.Scan(cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Del(keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
