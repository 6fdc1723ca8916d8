package store

import "time"

// Session represents one chat conversation context for one user.
// The session store is the single owner of these records; the lifecycle
// service is the only writer.
type Session struct {
	ID              string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
	TTLSeconds      int64     `json:"ttl_seconds"`
}

const (
	// DefaultTTL is the session lifetime granted on creation and on every heartbeat.
	DefaultTTL = 24 * time.Hour

	// DefaultInactiveThreshold marks sessions whose last heartbeat is older
	// than this as candidates for the "inactive" cleanup strategy.
	DefaultInactiveThreshold = 1 * time.Hour
)

// TTL returns the session lifetime as a duration.
func (s *Session) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// Expired reports whether the session has outlived its TTL relative to the
// last heartbeat. Used for lazy expiry on fallback-store reads.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.LastHeartbeatAt.Add(s.TTL()))
}

// Inactive reports whether the last heartbeat is older than the threshold.
func (s *Session) Inactive(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.LastHeartbeatAt) > threshold
}

// ApproxSizeBytes estimates the cache footprint of the record. Used only
// for the memory figures in stats and cleanup results.
func (s *Session) ApproxSizeBytes() int {
	return len(s.ID) + len(s.UserID) + 64 // timestamps + ttl
}
