package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"bookstore/package/logger"
)

// DocumentBackend keeps the whole JSON document under a single Redis key.
type DocumentBackend struct {
	client  *goredis.Client
	key     string
	timeout time.Duration
}

func NewDocumentBackend(addr, password string, db int, key string, timeout time.Duration) (*DocumentBackend, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	logger.Log.Info("Connected to redis ", addr)
	return &DocumentBackend{client: client, key: key, timeout: timeout}, nil
}

func (b *DocumentBackend) Load() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.key, err)
	}
	return data, nil
}

func (b *DocumentBackend) Save(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", b.key, err)
	}
	return nil
}

func (b *DocumentBackend) Close() error {
	return b.client.Close()
}
