package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kittipat-dev/unilib-api/internal/model"
)

const redisKeyPrefix = "otp:"

// Redis is the shared Store for multi-process deployments. Records carry
// their own ExpiresAt; the Redis TTL is a cleanup backstop, expiry decisions
// stay with the caller.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store on an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) key(address string) string {
	return redisKeyPrefix + address
}

func (r *Redis) Get(ctx context.Context, address string) (*model.OTPRecord, error) {
	data, err := r.client.Get(ctx, r.key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("otp store get: %w", err)
	}

	var record model.OTPRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("otp store decode: %w", err)
	}

	return &record, nil
}

func (r *Redis) Set(ctx context.Context, address string, record *model.OTPRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("otp store encode: %w", err)
	}

	if err := r.client.Set(ctx, r.key(address), data, ttl).Err(); err != nil {
		return fmt.Errorf("otp store set: %w", err)
	}

	return nil
}

func (r *Redis) Delete(ctx context.Context, address string) error {
	if err := r.client.Del(ctx, r.key(address)).Err(); err != nil {
		return fmt.Errorf("otp store delete: %w", err)
	}

	return nil
}
