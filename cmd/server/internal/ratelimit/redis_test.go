package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/keeper-project/homepage-api/internal/apperr"
)

func startRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate container")
	})
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err, "failed to get redis endpoint")

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisLimiterStore(t *testing.T) {
	rdb := startRedis(context.Background(), t)

	t.Run("AllowsUpToLimit", func(t *testing.T) {
		store := NewRedisLimitStore(RedisLimiterConfig{RedisClient: rdb, LimiterKey: "limit", PerMinute: 3})

		for i := range 3 {
			ok, err := store.Allow("member")
			require.NoError(t, err)
			assert.True(t, ok, "request %d should be allowed", i)
		}

		ok, err := store.Allow("member")
		require.NoError(t, err)
		assert.False(t, ok, "fourth request should be denied")

		ok, err = store.Allow("other")
		require.NoError(t, err)
		assert.True(t, ok, "identifiers are limited separately")
	})

	t.Run("KeysAreSeparate", func(t *testing.T) {
		a := NewRedisLimitStore(RedisLimiterConfig{RedisClient: rdb, LimiterKey: "a", PerMinute: 1})
		b := NewRedisLimitStore(RedisLimiterConfig{RedisClient: rdb, LimiterKey: "b", PerMinute: 1})

		ok, err := a.Allow("member")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.Allow("member")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CorruptCounter", func(t *testing.T) {
		open := NewRedisLimitStore(RedisLimiterConfig{RedisClient: rdb, LimiterKey: "corrupt", PerMinute: 1, FailOpen: true})
		closed := NewRedisLimitStore(RedisLimiterConfig{RedisClient: rdb, LimiterKey: "corrupt", PerMinute: 1, FailOpen: false})

		require.NoError(t, rdb.Set(context.Background(), open.key("member"), "garbage", window).Err())

		ok, err := open.Allow("member")
		require.Error(t, err)
		assert.True(t, ok, "fail open lets the request through")

		ok, err = closed.Allow("member")
		require.Error(t, err)
		assert.False(t, ok, "fail closed rejects the request")
	})
}

func TestNewRedisLimiter(t *testing.T) {
	rdb := startRedis(context.Background(), t)

	post := http.MethodPost
	cfg := NewRedisLimiter(rdb, "submit", 1, true, &post, func(echo.Context) (string, error) {
		return "member", nil
	})

	e := echo.New()
	handler := middleware.RateLimiterWithConfig(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	call := func(method string) error {
		req := httptest.NewRequest(method, "/", nil)
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call(http.MethodPost))
	require.ErrorIs(t, call(http.MethodPost), apperr.RateLimited)
	require.NoError(t, call(http.MethodGet), "only POST is limited")
}
