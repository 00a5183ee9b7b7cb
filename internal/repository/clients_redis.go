package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pylos/internal/domain/client"
	errors2 "pylos/internal/errors"
)

const clientKeyPrefix = "client:"

type RedisClientStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClientStorage(redis *redis.Client, ttl time.Duration) *RedisClientStorage {
	return &RedisClientStorage{
		client: redis,
		ttl:    ttl,
	}
}

func clientKey(clientUUID string) string {
	return clientKeyPrefix + clientUUID
}

func (r *RedisClientStorage) Put(ctx context.Context, c client.Client) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, clientKey(c.UUID), raw, r.ttl).Err()
}

func (r *RedisClientStorage) Get(ctx context.Context, clientUUID string) (client.Client, error) {
	raw, err := r.client.Get(ctx, clientKey(clientUUID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return client.Client{}, errors2.ErrClientNotFound
		}
		return client.Client{}, fmt.Errorf("redis get %s: %w", clientUUID, err)
	}

	var c client.Client
	if err := json.Unmarshal(raw, &c); err != nil {
		return client.Client{}, fmt.Errorf("decode client %s: %w", clientUUID, err)
	}
	return c, nil
}

func (r *RedisClientStorage) Delete(ctx context.Context, clientUUID string) error {
	return r.client.Del(ctx, clientKey(clientUUID)).Err()
}
