package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pazargate/internal/config"
)

// RedisStore keeps conversation state in Redis so multiple gateway
// instances observe the same dialogue context
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func stateKey(phone string) string {
	return "pazargate:conv:" + phone
}

// Get returns the state for a phone, or nil when absent
func (s *RedisStore) Get(ctx context.Context, phone string) (*ConversationState, error) {
	raw, err := s.client.Get(ctx, stateKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Set stores the state for a phone
func (s *RedisStore) Set(ctx context.Context, phone string, state *ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(phone), raw, stateTTL).Err()
}

// Clear removes the state for a phone
func (s *RedisStore) Clear(ctx context.Context, phone string) error {
	return s.client.Del(ctx, stateKey(phone)).Err()
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
