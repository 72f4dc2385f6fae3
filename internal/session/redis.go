package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
)

const sessionTTL = 24 * time.Hour

// RedisStore keeps sessions in Redis so an unfinished cart survives a bot
// restart. Each session is one JSON blob under etlon:session:<user>:<chat>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Redis) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Session, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// corrupt blob: start over rather than wedge the user
		return New(), nil
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) redisKey(key Key) string {
	return "etlon:session:" + key.String()
}
