package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/auth"
)

const defaultPrefix = "secrets-manager:token:"

var _ auth.TokenStore = (*RedisTokenStore)(nil)

// RedisTokenStore shares IAM tokens between processes. Entries expire in
// Redis when the token does.
type RedisTokenStore struct {
	redis  *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisTokenStore connects to addr and verifies the connection.
func NewRedisTokenStore(addr string, db int, logger *zap.Logger) (*RedisTokenStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisTokenStoreFromClient(rdb, logger), nil
}

// NewRedisTokenStoreFromClient wraps an existing client.
func NewRedisTokenStoreFromClient(rdb *redis.Client, logger *zap.Logger) *RedisTokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTokenStore{redis: rdb, prefix: defaultPrefix, logger: logger}
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (auth.Token, bool, error) {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncTokenCache("redis", "miss")
		return auth.Token{}, false, nil
	} else if err != nil {
		return auth.Token{}, false, err
	}

	var tok auth.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		s.logger.Warn("store.token.corrupt", zap.String("key", key), zap.Error(err))
		return auth.Token{}, false, nil
	}
	metrics.IncTokenCache("redis", "hit")
	return tok, true, nil
}

func (s *RedisTokenStore) Put(ctx context.Context, key string, tok auth.Token) error {
	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, s.prefix+key, data, ttl).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	return s.redis.Del(ctx, s.prefix+key).Err()
}

func (s *RedisTokenStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
