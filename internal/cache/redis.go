package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as JSON strings and tag membership as sets
// (SADD tag key), so invalidating a tag is SMEMBERS + DEL.
type RedisBackend struct {
	Client *redis.Client
}

func NewRedisBackend(url string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{Client: redis.NewClient(opt)}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := b.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value any, tags []string, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = b.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, raw, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, tagKey(tag), key)
		}
		return nil
	})
	return err
}

func (b *RedisBackend) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := b.Client.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := b.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if err := b.Client.Del(ctx, tagKey(tag)).Err(); err != nil {
			return err
		}
	}
	return nil
}

func tagKey(tag string) string {
	return "tag:" + tag
}
