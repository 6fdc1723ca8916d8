package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitmesh-session-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "chat:session:"
	userIndexPrefix  = "chat:user:"
	userIndexSuffix  = ":sessions"
)

// RedisSessionRepository stores sessions as JSON values with a native
// Redis TTL plus a per-user index set used by List and DeleteWhere.
type RedisSessionRepository struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, opTimeout time.Duration) *RedisSessionRepository {
	if opTimeout <= 0 {
		opTimeout = 15 * time.Second
	}
	return &RedisSessionRepository{rdb: rdb, opTimeout: opTimeout}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func userIndexKey(userID string) string {
	return userIndexPrefix + userID + userIndexSuffix
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	raw, err := r.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", sessionID, err)
	}

	var session store.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Put(ctx context.Context, session *store.Session) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), raw, session.TTL())
	pipe.SAdd(ctx, userIndexKey(session.UserID), session.ID)
	// Index outlives the longest session slightly so List can prune it.
	pipe.Expire(ctx, userIndexKey(session.UserID), session.TTL()+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", session.ID, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	// Fetch first so the user index can be pruned too.
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	if session != nil {
		pipe.SRem(ctx, userIndexKey(session.UserID), sessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisSessionRepository) DeleteWhere(ctx context.Context, userID string, predicate func(*store.Session) bool) ([]*store.Session, error) {
	sessions, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed []*store.Session
	for _, session := range sessions {
		if predicate != nil && !predicate(session) {
			continue
		}
		if err := r.Delete(ctx, session.ID); err != nil {
			return removed, err
		}
		removed = append(removed, session)
	}
	return removed, nil
}

func (r *RedisSessionRepository) List(ctx context.Context, userID string) ([]*store.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	ids, err := r.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", userID, err)
	}

	var sessions []*store.Session
	for _, id := range ids {
		session, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if session == nil {
			// Value expired natively; prune the dangling index member.
			r.rdb.SRem(ctx, userIndexKey(userID), id)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Ping checks backend reachability directly, bypassing the breaker. Used
// by the health operation only.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}
