package factory

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFactory opens single-connection Redis clients, one per pool slot.
// go-redis keeps its own internal pool, so each client is pinned to exactly
// one server connection to preserve the pool's exclusivity guarantee.
type RedisFactory struct {
	opt *redis.Options
}

// NewRedis creates a RedisFactory from client options. PoolSize is forced to
// one regardless of the supplied value.
func NewRedis(opt *redis.Options) *RedisFactory {
	o := *opt
	o.PoolSize = 1
	o.MinIdleConns = 0
	return &RedisFactory{opt: &o}
}

func (f *RedisFactory) Open(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(f.opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (f *RedisFactory) Check(ctx context.Context, client *redis.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

func (f *RedisFactory) Close(client *redis.Client) error {
	return client.Close()
}
