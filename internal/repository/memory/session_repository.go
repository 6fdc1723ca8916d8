package memory

import (
	"context"
	"time"

	"gitmesh-session-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process fallback used when the breaker is
// open or Redis is unreachable. go-cache handles locking and background
// purges; expiry is additionally checked lazily on access so a stale entry
// never escapes between purge runs.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Purge expired items every 10 minutes; TTL is set per entry.
	c := cache.New(store.DefaultTTL, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*store.Session, error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	session := x.(*store.Session)
	if session.Expired(time.Now()) {
		r.cache.Delete(sessionID)
		return nil, nil
	}
	return session, nil
}

func (r *SessionRepository) Put(_ context.Context, session *store.Session) error {
	r.cache.Set(session.ID, session, session.TTL())
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *SessionRepository) DeleteWhere(_ context.Context, userID string, predicate func(*store.Session) bool) ([]*store.Session, error) {
	var removed []*store.Session
	for id, item := range r.cache.Items() {
		session, ok := item.Object.(*store.Session)
		if !ok || session.UserID != userID {
			continue
		}
		if predicate == nil || predicate(session) {
			r.cache.Delete(id)
			removed = append(removed, session)
		}
	}
	return removed, nil
}

func (r *SessionRepository) List(_ context.Context, userID string) ([]*store.Session, error) {
	now := time.Now()
	var sessions []*store.Session
	for id, item := range r.cache.Items() {
		session, ok := item.Object.(*store.Session)
		if !ok || session.UserID != userID {
			continue
		}
		if session.Expired(now) {
			r.cache.Delete(id)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Len returns the number of live entries, counting all users.
func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}
