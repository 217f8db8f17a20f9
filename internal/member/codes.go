package member

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
)

const (
	CodeLength = 6
	CodeTTL    = 5 * time.Minute
)

type CodeStore interface {
	// Stores `code` for `email`, replacing any earlier code
	Save(ctx context.Context, email, code string) error
	// True when `code` matches the stored one. The stored code is removed either way.
	Consume(ctx context.Context, email, code string) (bool, error)
}

var _ CodeStore = (*RedisCodeStore)(nil)

type RedisCodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCodeStore(client *redis.Client, ttl time.Duration) *RedisCodeStore {
	return &RedisCodeStore{client: client, ttl: ttl}
}

func codeKey(email string) string {
	return "keeper-email-auth-" + email
}

func (s *RedisCodeStore) Save(ctx context.Context, email, code string) error {
	ctx, span := tracer.Start(ctx, "RedisCodeStore.Save")
	defer span.End()

	err := s.client.Set(ctx, codeKey(email), code, s.ttl).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store code")
		return err
	}

	span.SetStatus(codes.Ok, "stored code")
	return nil
}

func (s *RedisCodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	ctx, span := tracer.Start(ctx, "RedisCodeStore.Consume")
	defer span.End()

	stored, err := s.client.GetDel(ctx, codeKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "no code stored")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to consume code")
		return false, err
	}

	span.SetStatus(codes.Ok, "consumed code")
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

// Uniformly random decimal code of CodeLength digits
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
