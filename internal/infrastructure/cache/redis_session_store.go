package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore 以 Redis 保存 session -> 最新 token，讓多個實例共用同一份狀態。
// 每筆資料帶 TTL，過期的 session 會自動清除。
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore 建立 client 並以 PING 確認連線。
func NewRedisSessionStore(ctx context.Context, cfg config.RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisSessionStoreWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

func NewRedisSessionStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionID, token string) error {
	if err := s.client.Set(ctx, s.key(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (s *RedisSessionStore) Remove(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close 關閉底層連線。
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
