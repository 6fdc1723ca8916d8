package contract

import (
	"context"

	"gitmesh-session-be/pkg/store"
)

// ISessionRepository defines session storage operations. A miss returns
// (nil, nil); errors are reserved for store failures.
type ISessionRepository interface {
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	Put(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, sessionID string) error
	// DeleteWhere removes every session of the user matching the predicate
	// and returns the removed sessions.
	DeleteWhere(ctx context.Context, userID string, predicate func(*store.Session) bool) ([]*store.Session, error)
	List(ctx context.Context, userID string) ([]*store.Session, error)
}
