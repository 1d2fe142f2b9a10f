package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/booking"
)

const sessionKeyPrefix = "booking_session:"

const defaultSessionTTL = 30 * time.Minute

// RedisStore keeps booking state in Redis as one JSON blob per session, with
// a sliding TTL so abandoned sessions expire on their own.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		redis:  redisClient,
		tracer: otel.Tracer("wellappoint.internal.session"),
		ttl:    ttl,
	}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*booking.State, error) {
	if sessionID == "" {
		return nil, errors.New("session: sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	raw, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: get state: %w", err)
	}

	var st booking.State
	if err := json.Unmarshal(raw, &st); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: decode state: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, st *booking.State) error {
	if sessionID == "" {
		return errors.New("session: sessionID required")
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "session.put")
	defer span.End()

	if err := s.redis.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: put state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session: sessionID required")
	}

	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete state: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
