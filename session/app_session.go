package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

type AppSession struct {
	Principal
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

func key(id string) string         { return fmt.Sprintf("loan:sess:%s", id) }
func userSetKey(uid string) string { return fmt.Sprintf("loan:user_sessions:%s", uid) }

func (s *AppSessionStore) Create(ctx context.Context, id string, p Principal) error {
	now := time.Now()
	b, err := json.Marshal(AppSession{
		Principal: p,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(p.UID), id)
	pipe.Expire(ctx, userSetKey(p.UID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, userSetKey(as.UID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForUser signs the user out everywhere.
func (s *AppSessionStore) RevokeAllForUser(ctx context.Context, uid string) error {
	ids, err := s.rdb.SMembers(ctx, userSetKey(uid)).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, userSetKey(uid))
	_, err = pipe.Exec(ctx)
	return err
}
