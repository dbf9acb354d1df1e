package redisad

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"hotelstay/internal/adapters/observability"
)

// KV keeps durable values in redis under "<prefix>:<key>". Values never expire.
type KV struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int, prefix string) *KV {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), prefix)
}

func NewFromClient(c *redis.Client, prefix string) *KV {
	return &KV{c: c, prefix: prefix}
}

func (r *KV) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStorage("redis", "miss")
		return "", false, nil
	}
	if err != nil {
		observability.ObserveStorage("redis", "error")
		return "", false, err
	}
	observability.ObserveStorage("redis", "hit")
	return v, true, nil
}

func (r *KV) Set(ctx context.Context, key, value string) error {
	observability.ObserveStorage("redis", "set")
	return r.c.Set(ctx, r.key(key), value, 0).Err()
}

func (r *KV) Delete(ctx context.Context, key string) error {
	observability.ObserveStorage("redis", "del")
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *KV) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *KV) Close() error { return r.c.Close() }
