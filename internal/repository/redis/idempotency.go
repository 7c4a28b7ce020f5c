package redisrepo

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemPending = "LOCK"
	idemDone    = "RES:"
)

// ClaimState is what a caller found when it tried to claim a key.
type ClaimState int

const (
	// Claimed means the caller owns the key and must Complete or Release it.
	Claimed ClaimState = iota
	// Finished means an earlier caller stored its response.
	Finished
	// InFlight means another caller holds the key.
	InFlight
)

// IdempotencyStore guards an operation with one Redis value per key: a
// pending marker while it runs, then the finished response body.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdempotencyStore keeps finished responses for ttl.
func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Claim takes key for lockTTL if it is free. Otherwise it reports whether the
// holder already finished, returning the stored response in that case.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, lockTTL time.Duration) (ClaimState, string, error) {
	ok, err := s.rdb.SetNX(ctx, key, idemPending, lockTTL).Result()
	if err != nil {
		return InFlight, "", err
	}
	if ok {
		return Claimed, "", nil
	}

	v, err := s.rdb.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// released between SETNX and GET, the caller retries
		return InFlight, "", nil
	case err != nil:
		return InFlight, "", err
	}

	if body, done := strings.CutPrefix(v, idemDone); done {
		return Finished, body, nil
	}
	return InFlight, "", nil
}

// Complete replaces the pending marker with the response body.
func (s *IdempotencyStore) Complete(ctx context.Context, key, body string) error {
	return s.rdb.Set(ctx, key, idemDone+body, s.ttl).Err()
}

// Release gives up a claim so the operation can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
