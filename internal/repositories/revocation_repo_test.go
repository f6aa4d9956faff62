package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRevocationRepo(t *testing.T, ttl time.Duration) (*RedisRevocationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRevocationRepository(client, ttl), mr
}

func TestRevocation_UnknownUserIsNotRevoked(t *testing.T) {
	repo, _ := newRevocationRepo(t, time.Hour)

	_, ok, err := repo.RevokedBefore(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevocation_RoundTripsCutoff(t *testing.T) {
	repo, mr := newRevocationRepo(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()
	cutoff := time.UnixMilli(1_700_000_000_250)

	require.NoError(t, repo.RevokeBefore(ctx, userID, cutoff))

	got, ok, err := repo.RevokedBefore(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, cutoff.Equal(got))
	assert.Equal(t, time.Hour, mr.TTL("revoked:user:"+userID.String()))
}

func TestRevocation_KeepsSubSecondCutoff(t *testing.T) {
	repo, mr := newRevocationRepo(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()
	cutoff := time.Unix(1_700_000_010, int64(900*time.Millisecond))

	require.NoError(t, repo.RevokeBefore(ctx, userID, cutoff))

	raw, err := mr.Get("revoked:user:" + userID.String())
	require.NoError(t, err)
	assert.Equal(t, "1700000010900", raw)

	got, _, err := repo.RevokedBefore(ctx, userID)
	require.NoError(t, err)
	assert.True(t, got.After(time.Unix(1_700_000_010, 100*int64(time.Millisecond))))
}

func TestRevocation_ExpiresWithTokenLifetime(t *testing.T) {
	repo, mr := newRevocationRepo(t, time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.RevokeBefore(ctx, userID, time.Now()))
	mr.FastForward(2 * time.Minute)

	_, ok, err := repo.RevokedBefore(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevocation_CorruptValue(t *testing.T) {
	repo, mr := newRevocationRepo(t, time.Hour)
	userID := uuid.New()
	require.NoError(t, mr.Set("revoked:user:"+userID.String(), "yesterday"))

	_, _, err := repo.RevokedBefore(context.Background(), userID)
	assert.Error(t, err)
}

func TestRevocation_RedisDown(t *testing.T) {
	repo, mr := newRevocationRepo(t, time.Hour)
	mr.Close()

	err := repo.RevokeBefore(context.Background(), uuid.New(), time.Now())
	assert.Error(t, err)
}

func TestNopRevocation(t *testing.T) {
	var repo RevocationRepository = NopRevocationRepository{}
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.RevokeBefore(ctx, userID, time.Now()))
	_, ok, err := repo.RevokedBefore(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}
