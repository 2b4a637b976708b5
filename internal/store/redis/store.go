// Package redis implements store.KV on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/readingnook/readingnook-server/internal/store"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace is prepended to every key, e.g. "readingnook:".
	Namespace string
}

// Store is a Redis-backed store.KV. Values never expire.
type Store struct {
	client    *goredis.Client
	namespace string
	logger    *slog.Logger
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	if logger != nil {
		logger.Info("Redis connection established", "addr", opts.Addr, "db", opts.DB)
	}

	return &Store{client: client, namespace: opts.Namespace, logger: logger}, nil
}

func (s *Store) key(k string) string {
	return s.namespace + k
}

// Get implements store.KV.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

// Set implements store.KV.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete implements store.KV.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping implements store.KV.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client connection pool.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing redis connection")
	}
	return s.client.Close()
}
