package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:user:"

// RedisRevocationRepository records, per user, the instant (in unix
// milliseconds) before which issued tokens are no longer accepted. Entries expire after ttl, by which
// time every token issued before the cutoff has expired on its own.
type RedisRevocationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRevocationRepository(client *redis.Client, ttl time.Duration) *RedisRevocationRepository {
	return &RedisRevocationRepository{client: client, ttl: ttl}
}

func (r *RedisRevocationRepository) RevokeBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) error {
	err := r.client.Set(ctx, revokedKey(userID), cutoff.UnixMilli(), r.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set revocation: %w", err)
	}
	return nil
}

func (r *RedisRevocationRepository) RevokedBefore(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, revokedKey(userID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get revocation: %w", err)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse revocation %q: %w", raw, err)
	}
	return time.UnixMilli(millis), true, nil
}

func revokedKey(userID uuid.UUID) string {
	return revokedPrefix + userID.String()
}

// NopRevocationRepository is used when no Redis is configured. Nothing is
// ever revoked; the access gate still rejects inactive users.
type NopRevocationRepository struct{}

func (NopRevocationRepository) RevokeBefore(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (NopRevocationRepository) RevokedBefore(context.Context, uuid.UUID) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
