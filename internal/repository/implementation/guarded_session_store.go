package implementation

import (
	"context"
	"sync/atomic"

	"gitmesh-session-be/internal/pkg/logger"
	"gitmesh-session-be/internal/repository/contract"
	"gitmesh-session-be/internal/repository/memory"
	"gitmesh-session-be/pkg/breaker"
	"gitmesh-session-be/pkg/store"
)

// remoteRepository is the session contract plus the direct reachability
// probe the health endpoint needs.
type remoteRepository interface {
	contract.ISessionRepository
	Ping(ctx context.Context) error
}

// GuardedSessionStore routes every operation through the circuit breaker.
// When the breaker permits, the operation runs against Redis and its
// outcome is reported back; on denial or remote failure the in-memory
// fallback serves the request. A transient remote failure never reaches
// the caller as an error.
//
// Mutations are mirrored into the fallback so a breaker trip does not
// start from an empty cache.
type GuardedSessionStore struct {
	remote   remoteRepository
	fallback *memory.SessionRepository
	cb       *breaker.CircuitBreaker
	logger   logger.ILogger

	hits   atomic.Int64
	misses atomic.Int64
}

func NewGuardedSessionStore(remote remoteRepository, fallback *memory.SessionRepository, cb *breaker.CircuitBreaker, log logger.ILogger) *GuardedSessionStore {
	return &GuardedSessionStore{
		remote:   remote,
		fallback: fallback,
		cb:       cb,
		logger:   log,
	}
}

func (s *GuardedSessionStore) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	if s.cb.Allow() {
		session, err := s.remote.Get(ctx, sessionID)
		if err == nil {
			s.cb.RecordSuccess()
			s.countLookup(session != nil)
			return session, nil
		}
		s.remoteFailed("get", err)
	}

	session, err := s.fallback.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.countLookup(session != nil)
	return session, nil
}

func (s *GuardedSessionStore) Put(ctx context.Context, session *store.Session) error {
	// Keep the fallback warm regardless of which store is primary.
	if err := s.fallback.Put(ctx, session); err != nil {
		return err
	}

	if s.cb.Allow() {
		if err := s.remote.Put(ctx, session); err == nil {
			s.cb.RecordSuccess()
		} else {
			s.remoteFailed("put", err)
		}
	}
	return nil
}

func (s *GuardedSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.fallback.Delete(ctx, sessionID); err != nil {
		return err
	}

	if s.cb.Allow() {
		if err := s.remote.Delete(ctx, sessionID); err == nil {
			s.cb.RecordSuccess()
		} else {
			s.remoteFailed("delete", err)
		}
	}
	return nil
}

func (s *GuardedSessionStore) DeleteWhere(ctx context.Context, userID string, predicate func(*store.Session) bool) ([]*store.Session, error) {
	if s.cb.Allow() {
		removed, err := s.remote.DeleteWhere(ctx, userID, predicate)
		if err == nil {
			s.cb.RecordSuccess()
			// Mirror the removals locally; union avoids double counting.
			local, lerr := s.fallback.DeleteWhere(ctx, userID, predicate)
			if lerr != nil {
				return nil, lerr
			}
			return unionByID(removed, local), nil
		}
		s.remoteFailed("delete_where", err)
	}

	return s.fallback.DeleteWhere(ctx, userID, predicate)
}

func (s *GuardedSessionStore) List(ctx context.Context, userID string) ([]*store.Session, error) {
	if s.cb.Allow() {
		sessions, err := s.remote.List(ctx, userID)
		if err == nil {
			s.cb.RecordSuccess()
			return sessions, nil
		}
		s.remoteFailed("list", err)
	}
	return s.fallback.List(ctx, userID)
}

// Ping probes the remote backend directly, bypassing the breaker. The
// outcome is still recorded so a recovered backend closes the breaker
// without waiting for regular traffic.
func (s *GuardedSessionStore) Ping(ctx context.Context) error {
	err := s.remote.Ping(ctx)
	if err != nil {
		s.cb.RecordFailure()
	} else {
		s.cb.RecordSuccess()
	}
	return err
}

// Breaker exposes the shared breaker for health reporting.
func (s *GuardedSessionStore) Breaker() *breaker.CircuitBreaker {
	return s.cb
}

// FallbackLen reports live fallback entries across all users.
func (s *GuardedSessionStore) FallbackLen() int {
	return s.fallback.Len()
}

// HitRate returns lookup hits / total lookups, 0 when no lookups happened.
func (s *GuardedSessionStore) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (s *GuardedSessionStore) countLookup(hit bool) {
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

func (s *GuardedSessionStore) remoteFailed(op string, err error) {
	s.cb.RecordFailure()
	if s.logger != nil {
		s.logger.Warn("SessionStore", "Remote cache failed, using fallback", map[string]interface{}{
			"op":    op,
			"error": err.Error(),
		})
	}
}

func unionByID(a, b []*store.Session) []*store.Session {
	seen := make(map[string]bool, len(a))
	out := make([]*store.Session, 0, len(a)+len(b))
	for _, s := range a {
		seen[s.ID] = true
		out = append(out, s)
	}
	for _, s := range b {
		if !seen[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
