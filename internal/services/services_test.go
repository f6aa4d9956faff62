package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prudhvinik1/deviceregistry/internal/models"
	"github.com/prudhvinik1/deviceregistry/internal/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// testClock is a settable time source shared by the services under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	clock       *testClock
	redis       *miniredis.Miniredis
	users       *repositories.MemoryStore[models.User]
	devices     *repositories.MemoryStore[models.Device]
	revocations *repositories.RedisRevocationRepository
	tokens      *TokenService
	gate        *AccessGate
	userSvc     *UserService
	authSvc     *AuthService
	deviceSvc   *DeviceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := NewTokenService(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	tokens.now = clock.now

	users := repositories.NewMemoryUserStore()
	devices := repositories.NewMemoryDeviceStore()
	revocations := repositories.NewRedisRevocationRepository(client, tokens.Expiry())

	userSvc := NewUserService(users, revocations, bcrypt.MinCost)
	userSvc.now = clock.now

	return &fixture{
		clock:       clock,
		redis:       mr,
		users:       users,
		devices:     devices,
		revocations: revocations,
		tokens:      tokens,
		gate:        NewAccessGate(tokens, users, revocations),
		userSvc:     userSvc,
		authSvc:     NewAuthService(users, tokens, bcrypt.MinCost),
		deviceSvc:   NewDeviceService(devices),
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func (f *fixture) register(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.userSvc.Register(context.Background(), nil, models.UserCreate{
		Email:    email,
		Password: "pw12345678",
		FullName: strPtr("Test User"),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	tok, err := f.authSvc.Login(context.Background(), nil, email, password)
	require.NoError(t, err)
	return tok.AccessToken
}
