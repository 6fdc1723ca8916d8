package navigation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gitmesh-session-be/pkg/store"
)

// State of the controller's cleanup machinery.
type State string

const (
	StateIdle           State = "idle"
	StatePendingCleanup State = "pending-cleanup"
	StateCleaning       State = "cleaning"
)

const (
	defaultCleanupDelay      = 1 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
	defaultRequestTimeout    = 15 * time.Second
)

// Notifier receives user-visible messages when notifications are enabled.
type Notifier func(message string)

// Options are partial overrides; nil fields keep the defaults
// {EnableAutoCleanup: true, CleanupDelay: 1s, ShowNotifications: false}.
type Options struct {
	EnableAutoCleanup *bool
	CleanupDelay      *time.Duration
	ShowNotifications *bool
	HeartbeatInterval *time.Duration
}

// Config is the effective controller configuration after the merge.
type Config struct {
	EnableAutoCleanup bool
	CleanupDelay      time.Duration
	ShowNotifications bool
	HeartbeatInterval time.Duration
}

func (o Options) merged() Config {
	cfg := Config{
		EnableAutoCleanup: true,
		CleanupDelay:      defaultCleanupDelay,
		ShowNotifications: false,
		HeartbeatInterval: defaultHeartbeatInterval,
	}
	if o.EnableAutoCleanup != nil {
		cfg.EnableAutoCleanup = *o.EnableAutoCleanup
	}
	if o.CleanupDelay != nil {
		cfg.CleanupDelay = *o.CleanupDelay
	}
	if o.ShowNotifications != nil {
		cfg.ShowNotifications = *o.ShowNotifications
	}
	if o.HeartbeatInterval != nil {
		cfg.HeartbeatInterval = *o.HeartbeatInterval
	}
	return cfg
}

// Controller observes route changes and drives cache cleanup against the
// chat cache API. It mirrors the browser-side state machine: a
// section-crossing transition arms a single-slot debounce timer; a later
// crossing supersedes the pending one, so at most one automatic cleanup
// fires per settled navigation.
//
// Public operations never panic and never return an error: failures
// resolve to nil / false and are surfaced only through the optional
// notifier.
type Controller struct {
	baseURL string
	userID  string
	cfg     Config
	notify  Notifier
	client  *http.Client

	mu          sync.Mutex
	state       State
	currentPath string
	timer       *time.Timer

	heartbeatOnce sync.Once
	heartbeatStop chan struct{}
}

// NewController builds a controller for one user. An empty userID is
// allowed: path tracking still works, but no network call is ever made.
func NewController(baseURL, userID string, opts Options, notify Notifier) *Controller {
	return &Controller{
		baseURL:       baseURL,
		userID:        userID,
		cfg:           opts.merged(),
		notify:        notify,
		client:        &http.Client{Timeout: defaultRequestTimeout},
		state:         StateIdle,
		heartbeatStop: make(chan struct{}),
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// State returns the current cleanup state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPath returns the last observed path.
func (c *Controller) CurrentPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPath
}

// HandleRouteChange records a path transition and, on a section crossing,
// arms the debounced cleanup. Intra-section moves never trigger cleanup.
func (c *Controller) HandleRouteChange(path string) {
	c.mu.Lock()
	fromPage := c.currentPath
	c.currentPath = path

	if c.userID == "" || !c.cfg.EnableAutoCleanup || fromPage == "" || fromPage == path {
		c.mu.Unlock()
		return
	}
	if !SectionCrossing(fromPage, path) {
		c.mu.Unlock()
		return
	}

	// Single-slot timer: the latest crossing wins.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = StatePendingCleanup
	toPage := path
	c.timer = time.AfterFunc(c.cfg.CleanupDelay, func() {
		c.runCleanup(fromPage, toPage, true)
	})
	c.mu.Unlock()
}

// ManualCleanup cleans the current page pair without implying a
// navigation. Returns the result, or nil on any failure.
func (c *Controller) ManualCleanup(ctx context.Context) *store.CleanupResult {
	if c.userID == "" {
		return nil
	}
	c.mu.Lock()
	page := c.currentPath
	c.mu.Unlock()

	result := c.postNavigationCleanup(ctx, page, page)
	if result != nil {
		c.notifyCleaned(result)
	}
	return result
}

// ClearAllCache issues an unconditional full clear for the user.
func (c *Controller) ClearAllCache(ctx context.Context) bool {
	if c.userID == "" {
		return false
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.postJSON(ctx, "/api/v1/chat/clear-cache", map[string]string{"user_id": c.userID}, &resp); err != nil {
		return false
	}
	return resp.Success
}

// CacheStats fetches the user's cache statistics, nil on failure.
func (c *Controller) CacheStats(ctx context.Context) *store.CacheStats {
	if c.userID == "" {
		return nil
	}
	var resp struct {
		Success    bool             `json:"success"`
		CacheStats store.CacheStats `json:"cache_stats"`
	}
	if err := c.getJSON(ctx, "/api/v1/chat/cache-stats?user_id="+c.userID, &resp); err != nil || !resp.Success {
		return nil
	}
	return &resp.CacheStats
}

// CacheHealth fetches backend health, nil on failure.
func (c *Controller) CacheHealth(ctx context.Context) *store.HealthStatus {
	if c.userID == "" {
		return nil
	}
	var resp struct {
		Success      bool               `json:"success"`
		HealthStatus store.HealthStatus `json:"health_status"`
	}
	if err := c.getJSON(ctx, "/api/v1/chat/cache-health?user_id="+c.userID, &resp); err != nil || !resp.Success {
		return nil
	}
	return &resp.HealthStatus
}

// OptimizeCache asks the backend to drop expired entries, nil on failure.
func (c *Controller) OptimizeCache(ctx context.Context) *store.OptimizationResult {
	if c.userID == "" {
		return nil
	}
	var resp struct {
		Success             bool                     `json:"success"`
		OptimizationResults store.OptimizationResult `json:"optimization_results"`
	}
	if err := c.postJSON(ctx, "/api/v1/chat/optimize-cache", map[string]string{"user_id": c.userID}, &resp); err != nil || !resp.Success {
		return nil
	}
	return &resp.OptimizationResults
}

// StartHeartbeat keeps the session alive with periodic heartbeats until
// Close is called. Safe to call once per controller.
func (c *Controller) StartHeartbeat(sessionID string) {
	if c.userID == "" || sessionID == "" {
		return
	}
	c.heartbeatOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(c.cfg.HeartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sendHeartbeat(sessionID)
				case <-c.heartbeatStop:
					return
				}
			}
		}()
	})
}

// Close cancels any pending debounce timer and stops the heartbeat loop.
// A cleanup already in flight is not interrupted.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.state == StatePendingCleanup {
		c.state = StateIdle
	}
	c.mu.Unlock()

	select {
	case <-c.heartbeatStop:
	default:
		close(c.heartbeatStop)
	}
}

func (c *Controller) runCleanup(fromPage, toPage string, auto bool) {
	c.mu.Lock()
	c.state = StateCleaning
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	result := c.postNavigationCleanup(ctx, fromPage, toPage)
	if result != nil && auto {
		c.notifyCleaned(result)
	}

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Controller) sendHeartbeat(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/chat/sessions/%s/heartbeat?user_id=%s", c.baseURL, sessionID, c.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *Controller) postNavigationCleanup(ctx context.Context, fromPage, toPage string) *store.CleanupResult {
	var result store.CleanupResult
	body := map[string]string{
		"from_page": fromPage,
		"to_page":   toPage,
		"user_id":   c.userID,
	}
	if err := c.postJSON(ctx, "/api/v1/chat/navigation-cleanup", body, &result); err != nil {
		return nil
	}
	return &result
}

func (c *Controller) notifyCleaned(result *store.CleanupResult) {
	if !c.cfg.ShowNotifications || c.notify == nil {
		return
	}
	c.notify(fmt.Sprintf("Cache cleaned: %d entries, %gMB freed", result.EntriesCleaned, result.MemoryFreedMB))
}

func (c *Controller) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Controller) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Controller) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
