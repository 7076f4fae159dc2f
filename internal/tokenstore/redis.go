package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// RedisStore keeps credentials in Redis under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore builds a Redis-backed credential store.
func NewRedisStore(opts RedisOptions) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.Prefix,
	}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) Load(ctx context.Context) (Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	vals, err := s.client.MGet(ctx, s.key(KeyToken), s.key(KeyUser)).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	var creds Credentials
	if token, ok := vals[0].(string); ok {
		creds.Token = token
	}
	if raw, ok := vals[1].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &creds.User); err != nil {
			return Credentials{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	return creds, nil
}

func (s *RedisStore) Save(ctx context.Context, creds Credentials) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	user, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyToken), creds.Token, 0)
		pipe.Set(ctx, s.key(KeyUser), string(user), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(KeyToken), s.key(KeyUser)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
