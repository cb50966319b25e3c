package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is a read-through byte cache.
type Store interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// Cache is a redis-backed Store. Redis failures fall back to load.
type Cache struct {
	RDB *redis.Client
	log *zap.Logger
	sf  singleflight.Group
}

func New(addr, pass string, db int, l *zap.Logger) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), l)
}

func NewWithClient(rdb *redis.Client, l *zap.Logger) *Cache {
	if l == nil {
		l = zap.NewNop()
	}
	return &Cache{RDB: rdb, log: l}
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	// concurrent misses share one load
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if e := c.RDB.Set(ctx, key, b, ttl).Err(); e != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(e))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.RDB.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

func (c *Cache) Close() error { return c.RDB.Close() }

// Nop always loads. Used when no redis address is configured.
type Nop struct{}

func (Nop) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	return load(ctx)
}

func (Nop) Invalidate(context.Context, ...string) error { return nil }
