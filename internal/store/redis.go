package store

import (
	"context"
	"fmt"

	"fjacquet/bwa-report/internal/logging"

	"github.com/go-redis/redis"
)

// DefaultKeyPrefix namespaces settings keys in a shared Redis database.
const DefaultKeyPrefix = "bwa:settings:"

// RedisStore keeps each setting as a plain Redis string.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger logging.Logger
}

// NewRedisStore connects to addr and verifies the connection with PING.
func NewRedisStore(addr string, db int, prefix string, logger logging.Logger) (*RedisStore, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: prefix, logger: logging.OrDefault(logger)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key, def string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	value, err := s.client.WithContext(ctx).Get(s.prefix + key).Result()
	if err == redis.Nil {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.client.WithContext(ctx).Set(s.prefix+key, value, 0).Err(); err != nil {
		s.logger.WithError(err).Warn("Unable to write setting",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: logging.FieldBackend, Value: BackendRedis})
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
