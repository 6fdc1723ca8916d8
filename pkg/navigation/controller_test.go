package navigation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gitmesh-session-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	path string
	body map[string]interface{}
}

// cacheAPIStub records calls and replays canned responses.
type cacheAPIStub struct {
	mu       sync.Mutex
	calls    []recordedCall
	cleanup  store.CleanupResult
	failNext bool
}

func (s *cacheAPIStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		call := recordedCall{path: r.URL.Path}
		if r.Body != nil {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			call.body = body
		}
		s.calls = append(s.calls, call)
		fail := s.failNext
		s.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/chat/navigation-cleanup":
			_ = json.NewEncoder(w).Encode(s.cleanup)
		case "/api/v1/chat/clear-cache":
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		case "/api/v1/chat/cache-stats":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":     true,
				"cache_stats": store.CacheStats{TotalSessions: 3, HitRate: 0.75},
			})
		case "/api/v1/chat/cache-health":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":       true,
				"health_status": store.HealthStatus{IsHealthy: true, ConnectionStatus: "connected"},
			})
		case "/api/v1/chat/optimize-cache":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":              true,
				"optimization_results": store.OptimizationResult{CleanedEntries: 4},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}
	})
}

func (s *cacheAPIStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *cacheAPIStub) lastCall() recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func durationPtr(d time.Duration) *time.Duration { return &d }
func boolPtr(b bool) *bool                       { return &b }

func TestConfigMergePreservesDefaults(t *testing.T) {
	c := NewController("http://unused", "u1", Options{ShowNotifications: boolPtr(true)}, nil)
	defer c.Close()

	cfg := c.Config()
	assert.True(t, cfg.EnableAutoCleanup)
	assert.Equal(t, time.Second, cfg.CleanupDelay)
	assert.True(t, cfg.ShowNotifications)
}

func TestSectionCrossingTriggersOneCleanup(t *testing.T) {
	stub := &cacheAPIStub{cleanup: store.CleanupResult{EntriesCleaned: 2}}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{CleanupDelay: durationPtr(50 * time.Millisecond)}, nil)
	defer c.Close()

	c.HandleRouteChange("/contribution/chat")
	c.HandleRouteChange("/hub/overview")
	assert.Equal(t, StatePendingCleanup, c.State())

	require.Eventually(t, func() bool { return stub.callCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateIdle, c.State())

	call := stub.lastCall()
	assert.Equal(t, "/api/v1/chat/navigation-cleanup", call.path)
	assert.Equal(t, "/contribution/chat", call.body["from_page"])
	assert.Equal(t, "/hub/overview", call.body["to_page"])
	assert.Equal(t, "u1", call.body["user_id"])

	// No second cleanup for the settled navigation.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, stub.callCount())
}

func TestIntraSectionNeverTriggers(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{CleanupDelay: durationPtr(50 * time.Millisecond)}, nil)
	defer c.Close()

	c.HandleRouteChange("/hub/overview")
	c.HandleRouteChange("/hub/projects")

	time.Sleep(1100 * time.Millisecond)
	assert.Zero(t, stub.callCount())
	assert.Equal(t, StateIdle, c.State())
}

func TestLaterCrossingSupersedesPending(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{CleanupDelay: durationPtr(80 * time.Millisecond)}, nil)
	defer c.Close()

	c.HandleRouteChange("/contribution/chat")
	c.HandleRouteChange("/hub/overview")
	time.Sleep(20 * time.Millisecond)
	c.HandleRouteChange("/settings/profile")

	require.Eventually(t, func() bool { return stub.callCount() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, 1, stub.callCount(), "debounce, not queueing")

	call := stub.lastCall()
	assert.Equal(t, "/settings/profile", call.body["to_page"], "latest transition wins")
}

func TestCloseCancelsPendingCleanup(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{CleanupDelay: durationPtr(50 * time.Millisecond)}, nil)

	c.HandleRouteChange("/contribution/chat")
	c.HandleRouteChange("/hub/overview")
	c.Close()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, stub.callCount(), "no stale cleanup after teardown")
}

func TestManualCleanupSuccessAndNotification(t *testing.T) {
	stub := &cacheAPIStub{cleanup: store.CleanupResult{EntriesCleaned: 5, MemoryFreedMB: 2.5}}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	var messages []string
	notify := func(msg string) { messages = append(messages, msg) }

	c := NewController(srv.URL, "u1", Options{ShowNotifications: boolPtr(true)}, notify)
	defer c.Close()
	c.HandleRouteChange("/contribution/chat")

	result := c.ManualCleanup(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, 5, result.EntriesCleaned)
	assert.Equal(t, 2.5, result.MemoryFreedMB)

	call := stub.lastCall()
	assert.Equal(t, "/contribution/chat", call.body["from_page"])
	assert.Equal(t, "/contribution/chat", call.body["to_page"], "manual cleanup implies no navigation")

	require.Len(t, messages, 1)
	assert.Equal(t, "Cache cleaned: 5 entries, 2.5MB freed", messages[0])
}

func TestManualCleanupFailureReturnsNil(t *testing.T) {
	stub := &cacheAPIStub{failNext: true}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	var messages []string
	c := NewController(srv.URL, "u1", Options{ShowNotifications: boolPtr(true)}, func(msg string) {
		messages = append(messages, msg)
	})
	defer c.Close()

	assert.Nil(t, c.ManualCleanup(context.Background()))
	assert.Empty(t, messages, "failures are silent")
}

func TestPassThroughReads(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{}, nil)
	defer c.Close()
	ctx := context.Background()

	stats := c.CacheStats(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 0.75, stats.HitRate)

	health := c.CacheHealth(ctx)
	require.NotNil(t, health)
	assert.True(t, health.IsHealthy)

	opt := c.OptimizeCache(ctx)
	require.NotNil(t, opt)
	assert.Equal(t, 4, opt.CleanedEntries)

	assert.True(t, c.ClearAllCache(ctx))
}

func TestAbsentUserMakesNoNetworkCalls(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "", Options{CleanupDelay: durationPtr(20 * time.Millisecond)}, nil)
	defer c.Close()
	ctx := context.Background()

	c.HandleRouteChange("/contribution/chat")
	c.HandleRouteChange("/hub/overview")
	assert.Nil(t, c.ManualCleanup(ctx))
	assert.False(t, c.ClearAllCache(ctx))
	assert.Nil(t, c.CacheStats(ctx))
	assert.Nil(t, c.CacheHealth(ctx))
	assert.Nil(t, c.OptimizeCache(ctx))
	c.NotifyUnload()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, stub.callCount())
	assert.Equal(t, "/hub/overview", c.CurrentPath(), "path tracking still works")
}

func TestNotifyUnloadFiresBestEffort(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{}, nil)
	defer c.Close()
	c.HandleRouteChange("/contribution/chat")

	c.NotifyUnload()

	require.Eventually(t, func() bool { return stub.callCount() == 1 }, time.Second, 10*time.Millisecond)
	call := stub.lastCall()
	assert.Equal(t, "/api/v1/chat/navigation-cleanup", call.path)
	assert.Equal(t, "/contribution/chat", call.body["from_page"])
	assert.Equal(t, "external", call.body["to_page"])
}

func TestAutoCleanupDisabled(t *testing.T) {
	stub := &cacheAPIStub{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewController(srv.URL, "u1", Options{
		EnableAutoCleanup: boolPtr(false),
		CleanupDelay:      durationPtr(20 * time.Millisecond),
	}, nil)
	defer c.Close()

	c.HandleRouteChange("/contribution/chat")
	c.HandleRouteChange("/hub/overview")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, stub.callCount())
}
