package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"talentsparkle/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisPersister keeps each collection blob under its own key, without expiry
type RedisPersister struct {
	client *redis.Client
}

// NewRedisPersister connects and pings the server
func NewRedisPersister(ctx context.Context, cfg config.RedisConfig) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisPersister{client: client}, nil
}

// NewRedisPersisterFromClient wraps an existing client
func NewRedisPersisterFromClient(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func (r *RedisPersister) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisPersister) Save(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SaveAll writes every blob inside one MULTI/EXEC
func (r *RedisPersister) SaveAll(ctx context.Context, blobs []Blob) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, b := range blobs {
			pipe.Set(ctx, b.Key, b.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis multi set: %w", err)
	}
	return nil
}

func (r *RedisPersister) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
