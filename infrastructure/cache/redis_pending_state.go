package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

const pendingKeyPrefix = "socialhub:pending:"

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.GetLogger().WithField("addr", addr).Info("Redis connected")
	return client, nil
}

// RedisPendingState stores OAuth flow state with a server-side TTL so that
// abandoned flows expire on every replica.
type RedisPendingState struct {
	client *redis.Client
}

func NewRedisPendingState(client *redis.Client) repository.IPendingState {
	return &RedisPendingState{client: client}
}

func (s *RedisPendingState) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, pendingKeyPrefix+key, value, ttl).Err()
}

func (s *RedisPendingState) Peek(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, pendingKeyPrefix+key).Result()
	return result(v, err)
}

func (s *RedisPendingState) Take(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.GetDel(ctx, pendingKeyPrefix+key).Result()
	return result(v, err)
}

func (s *RedisPendingState) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, pendingKeyPrefix+key).Err()
}

func result(v string, err error) (string, bool, error) {
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}
