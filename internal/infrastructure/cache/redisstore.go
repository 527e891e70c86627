package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

const defaultKeyPrefix = "chemreact:cache:"

// RedisStore is the shared-deployment backend.  TTL enforcement is delegated
// to Redis key expiry, so Get never has to reason about timestamps.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration, logger logging.Logger) *RedisStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger.Named("rediscache")}
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis ping failed")
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis get failed")
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("removing corrupt cache entry", logging.String("key", key))
		_ = s.client.Del(ctx, s.prefix+key).Err()
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode cache entry")
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis set failed")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis delete failed")
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "redis scan failed")
	}
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}

func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalEntries: len(keys), Location: s.prefix}
	for _, key := range keys {
		if n, err := s.client.StrLen(ctx, s.prefix+key).Result(); err == nil {
			stats.TotalSizeBytes += n
		}
	}
	stats.TotalSizeMB = float64(stats.TotalSizeBytes) / (1 << 20)
	return stats, nil
}
