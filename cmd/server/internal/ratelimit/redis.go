// Package ratelimit is a redis backed store for echo's rate limiter.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/logger"
)

const keyPrefix = "keeper-ratelimit-"

const window = 60 * time.Second

type RedisLimiterStore struct {
	db         *redis.Client
	limiterKey string
	perMinute  int64
	failOpen   bool
}

type RedisLimiterConfig struct {
	RedisClient *redis.Client
	LimiterKey  string
	PerMinute   int64
	FailOpen    bool
}

var _ middleware.RateLimiterStore = (*RedisLimiterStore)(nil)

func (store *RedisLimiterStore) key(identifier string) string {
	return keyPrefix + store.limiterKey + "-" + identifier
}

func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	// This method might let N-1 extra requests in due to race condition where N is the possible number of concurrent writers
	// This is a smaller concern than the possibility that we will lose a distributed lock

	ctx := context.Background()

	key := store.key(identifier)

	reqsLeftStr, err := store.db.Get(ctx, key).Result()

	if err == nil {
		var reqsLeft int64

		reqsLeft, err = strconv.ParseInt(reqsLeftStr, 10, 64)
		if err != nil {
			return store.failOpen, err
		}

		if reqsLeft <= 0 {
			return false, nil
		}
	} else {
		if !errors.Is(err, redis.Nil) {
			return store.failOpen, err
		}

		err = store.db.Set(ctx, key, store.perMinute, window).Err()
		if err != nil {
			return store.failOpen, err
		}
	}

	err = store.db.Decr(ctx, key).Err()
	if err != nil {
		return store.failOpen, err
	}

	return true, nil
}

func NewRedisLimitStore(config RedisLimiterConfig) *RedisLimiterStore {
	return &RedisLimiterStore{
		perMinute:  config.PerMinute,
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		failOpen:   config.FailOpen,
	}
}

// Returns the rate limiter middleware config keyed on the value `identify` extracts.
// When `onlyMethod` is set other methods pass through untouched.
func NewRedisLimiter(
	rdb *redis.Client,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
	identify middleware.Extractor,
) middleware.RateLimiterConfig {
	l := logger.Logger.With("limiter", limiterKey)
	l.Debug("setting up rate limiter with redis", "perMinute", perMinute, "failOpen", failOpen)

	store := NewRedisLimitStore(RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	})

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper:             skipper,
		Store:               store,
		IdentifierExtractor: identify,
		ErrorHandler: func(_ echo.Context, err error) error {
			return response.InternalServerError.Wrap(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				l.WarnContext(c.Request().Context(), "rate limiter store failed", "error", err, "identifier", identifier)
				return response.InternalServerError.Wrap(err)
			}
			return apperr.RateLimited.Wrap(echo.NewHTTPError(http.StatusTooManyRequests))
		},
	}
}
