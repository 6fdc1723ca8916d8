package service

import (
	"context"
	"fmt"
	"time"

	"gitmesh-session-be/internal/dto"
	"gitmesh-session-be/internal/pkg/logger"
	"gitmesh-session-be/internal/repository/contract"
	"gitmesh-session-be/pkg/breaker"
	"gitmesh-session-be/pkg/navigation"
	"gitmesh-session-be/pkg/store"
)

// ISessionCacheService is the session lifecycle manager behind the chat
// cache endpoints.
type ISessionCacheService interface {
	Heartbeat(ctx context.Context, sessionID, userID string) (*store.Session, error)
	Cleanup(ctx context.Context, userID, strategy string, sessionIDs []string) (*store.CleanupResult, error)
	NavigationCleanup(ctx context.Context, fromPage, toPage, userID string) (*store.CleanupResult, error)
	ClearCache(ctx context.Context, userID string) (bool, error)
	Stats(ctx context.Context, userID string) (*store.CacheStats, error)
	Health(ctx context.Context) (*store.HealthStatus, error)
	Optimize(ctx context.Context, userID string) (*store.OptimizationResult, error)
}

// SessionCacheStore is the guarded store surface the service depends on.
type SessionCacheStore interface {
	contract.ISessionRepository
	Ping(ctx context.Context) error
	Breaker() *breaker.CircuitBreaker
	FallbackLen() int
	HitRate() float64
}

type sessionCacheService struct {
	sessions          SessionCacheStore
	publisher         ICleanupEventPublisher
	logger            logger.ILogger
	sessionTTL        time.Duration
	inactiveThreshold time.Duration
	now               func() time.Time
}

func NewSessionCacheService(
	sessions SessionCacheStore,
	publisher ICleanupEventPublisher,
	log logger.ILogger,
	sessionTTL time.Duration,
	inactiveThreshold time.Duration,
) ISessionCacheService {
	if sessionTTL <= 0 {
		sessionTTL = store.DefaultTTL
	}
	if inactiveThreshold <= 0 {
		inactiveThreshold = store.DefaultInactiveThreshold
	}
	return &sessionCacheService{
		sessions:          sessions,
		publisher:         publisher,
		logger:            log,
		sessionTTL:        sessionTTL,
		inactiveThreshold: inactiveThreshold,
		now:               time.Now,
	}
}

// Heartbeat refreshes the session TTL. A heartbeat for an expired or
// unknown session recreates it, so the call is idempotent and never fails
// just because the session aged out between beats.
func (s *sessionCacheService) Heartbeat(ctx context.Context, sessionID, userID string) (*store.Session, error) {
	now := s.now()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("heartbeat lookup %s: %w", sessionID, err)
	}

	if session == nil {
		session = &store.Session{
			ID:        sessionID,
			UserID:    userID,
			CreatedAt: now,
		}
	} else {
		// The fallback store hands out its stored pointer; refresh a copy.
		refreshed := *session
		session = &refreshed
	}
	if userID != "" {
		session.UserID = userID
	}
	session.LastHeartbeatAt = now
	session.TTLSeconds = int64(s.sessionTTL.Seconds())

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("heartbeat save %s: %w", sessionID, err)
	}
	return session, nil
}

// Cleanup removes sessions for the user per strategy and summarizes the
// removal. Clearing zero sessions is a success, not an error.
func (s *sessionCacheService) Cleanup(ctx context.Context, userID, strategy string, sessionIDs []string) (*store.CleanupResult, error) {
	started := s.now()

	var predicate func(*store.Session) bool
	switch strategy {
	case dto.CleanupTypeAll:
		predicate = nil
	case dto.CleanupTypeInactive:
		now := started
		predicate = func(sess *store.Session) bool {
			return sess.Inactive(now, s.inactiveThreshold) || sess.Expired(now)
		}
	case dto.CleanupTypeSpecific:
		wanted := make(map[string]bool, len(sessionIDs))
		for _, id := range sessionIDs {
			wanted[id] = true
		}
		predicate = func(sess *store.Session) bool {
			return wanted[sess.ID]
		}
	default:
		return nil, fmt.Errorf("unknown cleanup strategy: %q", strategy)
	}

	removed, err := s.sessions.DeleteWhere(ctx, userID, predicate)
	if err != nil {
		return nil, fmt.Errorf("cleanup %s for %s: %w", strategy, userID, err)
	}

	result := s.buildResult(strategy, removed, started)
	s.logger.Info("SessionCache", "Cleanup completed", map[string]interface{}{
		"user_id":  userID,
		"strategy": strategy,
		"entries":  result.EntriesCleaned,
	})
	s.publishCleanup(userID, strategy, result)
	return result, nil
}

// NavigationCleanup mirrors the client-side classification: a
// section-crossing transition (or an unload, to_page "external") runs a
// cleanup; intra-section moves return an empty result. An identical page
// pair is a manual cleanup and always runs.
func (s *sessionCacheService) NavigationCleanup(ctx context.Context, fromPage, toPage, userID string) (*store.CleanupResult, error) {
	if fromPage != toPage && !navigation.SectionCrossing(fromPage, toPage) {
		return &store.CleanupResult{}, nil
	}

	result, err := s.Cleanup(ctx, userID, dto.CleanupTypeInactive, nil)
	if err != nil {
		return nil, err
	}

	// Leaving the contribution area drops repository-scoped cache too;
	// an unload clears the conversation context.
	result.RepositoryCache = navigation.TopSection(fromPage) == "contribution"
	result.ContextCache = toPage == navigation.PageExternal
	return result, nil
}

// ClearCache drops every session for the user unconditionally.
func (s *sessionCacheService) ClearCache(ctx context.Context, userID string) (bool, error) {
	_, err := s.Cleanup(ctx, userID, dto.CleanupTypeAll, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stats aggregates the user's cache entries. Read-only.
func (s *sessionCacheService) Stats(ctx context.Context, userID string) (*store.CacheStats, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", userID, err)
	}

	now := s.now()
	stats := &store.CacheStats{
		TotalSessions:   len(sessions),
		HitRate:         s.sessions.HitRate(),
		FallbackEntries: s.sessions.FallbackLen(),
	}
	var bytes int
	for _, sess := range sessions {
		bytes += sess.ApproxSizeBytes()
		if !sess.Inactive(now, s.inactiveThreshold) {
			stats.ActiveSessions++
		}
	}
	stats.MemoryUsageMB = float64(bytes) / (1024 * 1024)
	return stats, nil
}

// Health pings the backend directly, bypassing the guarded path.
func (s *sessionCacheService) Health(ctx context.Context) (*store.HealthStatus, error) {
	started := s.now()
	err := s.sessions.Ping(ctx)
	elapsed := s.now().Sub(started)

	status := &store.HealthStatus{
		IsHealthy:      err == nil,
		ResponseTimeMS: float64(elapsed.Microseconds()) / 1000,
		ErrorCount:     s.sessions.Breaker().FailureCount(),
		BreakerState:   string(s.sessions.Breaker().State()),
	}
	if err != nil {
		status.ConnectionStatus = "disconnected"
	} else {
		status.ConnectionStatus = "connected"
	}
	return status, nil
}

// Optimize drops expired and inactive entries for the user.
func (s *sessionCacheService) Optimize(ctx context.Context, userID string) (*store.OptimizationResult, error) {
	started := s.now()

	result, err := s.Cleanup(ctx, userID, dto.CleanupTypeInactive, nil)
	if err != nil {
		return nil, err
	}

	return &store.OptimizationResult{
		CleanedEntries:   result.EntriesCleaned,
		MemorySavedMB:    result.MemoryFreedMB,
		OptimizationTime: s.now().Sub(started).Seconds(),
	}, nil
}

func (s *sessionCacheService) buildResult(strategy string, removed []*store.Session, started time.Time) *store.CleanupResult {
	var bytes int
	for _, sess := range removed {
		bytes += sess.ApproxSizeBytes()
	}
	return &store.CleanupResult{
		SessionCache:   true,
		ContextCache:   strategy == dto.CleanupTypeAll,
		EntriesCleaned: len(removed),
		MemoryFreedMB:  float64(bytes) / (1024 * 1024),
		CleanupTimeMS:  s.now().Sub(started).Milliseconds(),
	}
}

func (s *sessionCacheService) publishCleanup(userID, strategy string, result *store.CleanupResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCleanup(userID, strategy, result); err != nil {
		s.logger.Warn("SessionCache", "Failed to publish cleanup event", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
