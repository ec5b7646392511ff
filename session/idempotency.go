package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pending marks a key whose first request is still running. A pending
// reservation only lives for pendingTTL so a lost Complete frees the key soon.
const (
	pending    = "-"
	pendingTTL = 2 * time.Minute
)

var ErrKeyInFlight = errors.New("a request with this idempotency key is still in progress")

// IdempotencyStore remembers which loan request an Idempotency-Key produced,
// per user, so a retried submission returns the original instead of a copy.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func idemKey(uid, k string) string { return fmt.Sprintf("loan:idem:%s:%s", uid, k) }

// Reserve claims the key. When the key already finished, its request id is
// returned with reserved=false; when it is still in flight ErrKeyInFlight is
// returned.
func (s *IdempotencyStore) Reserve(ctx context.Context, uid, k string) (requestID string, reserved bool, err error) {
	ttl := pendingTTL
	if s.ttl < ttl {
		ttl = s.ttl
	}
	ok, err := s.rdb.SetNX(ctx, idemKey(uid, k), pending, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := s.rdb.Get(ctx, idemKey(uid, k)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; try once more
		return s.Reserve(ctx, uid, k)
	}
	if err != nil {
		return "", false, err
	}
	if v == pending {
		return "", false, ErrKeyInFlight
	}
	return v, false, nil
}

// Complete stores the request id under the key for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, uid, k, requestID string) error {
	return s.rdb.Set(ctx, idemKey(uid, k), requestID, s.ttl).Err()
}

// Release frees a reservation whose request failed so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, uid, k string) error {
	return s.rdb.Del(ctx, idemKey(uid, k)).Err()
}
