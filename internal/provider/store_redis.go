package provider

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fxresolver/internal/rate"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps cached rates in Redis hashes. Each write is one
// HSET+EXPIRE pipeline, so a reader sees either the old hash or the new one.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads and rebuilds the cached rate. Any malformed field is a miss.
func (s *RedisStore) Get(ctx context.Context, key CacheKey) (rate.ExchangeRate, bool) {
	vals, err := s.client.HMGet(ctx, key.String(), "rate", "updated_at", "source", "provider").Result()
	if err != nil || len(vals) != 4 {
		return rate.ExchangeRate{}, false
	}
	fields := make([]string, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			return rate.ExchangeRate{}, false
		}
		fields[i] = str
	}

	d, err := decimal.NewFromString(fields[0])
	if err != nil {
		return rate.ExchangeRate{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, fields[1])
	if err != nil {
		return rate.ExchangeRate{}, false
	}
	src, err := rate.ParseSource(fields[2])
	if err != nil {
		return rate.ExchangeRate{}, false
	}
	r, err := rate.New(key.Base, key.Target, d, ts, src, rate.WithProvider(fields[3]))
	if err != nil {
		return rate.ExchangeRate{}, false
	}
	return r, true
}

// Set writes r under key with the given ttl.
func (s *RedisStore) Set(ctx context.Context, key CacheKey, r rate.ExchangeRate, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key.String(),
		"rate", r.Rate().String(),
		"updated_at", r.Timestamp().Format(time.RFC3339Nano),
		"source", r.Source().String(),
		"provider", r.Provider(),
	)
	pipe.Expire(ctx, key.String(), ttl)
	_, err := pipe.Exec(ctx)
	return err
}
