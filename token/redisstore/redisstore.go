package redisstore

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/token"
	"github.com/redis/go-redis/v9"
)

var _ token.Store = (*RedisStore)(nil)

// RedisStore keeps the token pair in Redis so several processes (or a
// restarted one) share one session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type Option func(*RedisStore)

func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires stored keys; 0 keeps them until removed
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func New(client *redis.Client, options ...Option) *RedisStore {
	s := &RedisStore{client: client, prefix: "medihelp:"}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// NewFromURL parses a redis:// URL and pings the server
func NewFromURL(ctx context.Context, url string, options ...Option) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[redisstore.NewFromURL] parse url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.Wrapf(err, "[redisstore.NewFromURL] ping")
	}
	return New(client, options...), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "[RedisStore.Get] %s", key)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisStore.Set] %s", key)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisStore.Remove] %s", key)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
