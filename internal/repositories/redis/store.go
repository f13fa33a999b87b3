// Package redis is a KVStore backed by a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

const defaultPrefix = "tiamo:"

// Store maps keys onto prefixed Redis strings.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ repositories.KVStore = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithTTL expires values after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix overrides the "tiamo:" key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dial builds a client from connection settings.
func Dial(addr, password string, db int, opts ...Option) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), opts...)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.NewNotFoundError("redis.get", key)
	}
	if err != nil {
		return nil, classify("redis.get", key, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return classify("redis.set", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return classify("redis.del", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}

func classify(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return repositories.NewUnavailableError(op, key, err)
	}
	return repositories.WrapStoreError(op, key, err)
}
