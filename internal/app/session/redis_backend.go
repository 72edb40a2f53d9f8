package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "arzweb:session:"

// RedisBackend stores records as JSON strings with a TTL.
type RedisBackend struct {
	client *goredis.Client
}

// NewRedisBackend wraps client.
func NewRedisBackend(client *goredis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (b *RedisBackend) Load(ctx context.Context, id string) (*Record, error) {
	if b.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	raw, err := b.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

func (b *RedisBackend) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := b.client.Set(ctx, redisKey(rec.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set session record: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := b.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// NewRedisClient connects to addr and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
