package navigation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// unloadTimeout bounds the fire-and-forget delivery; the page context may
// be gone before any response arrives, so the call is never awaited.
const unloadTimeout = 2 * time.Second

// NotifyUnload dispatches one best-effort cleanup signal for the current
// path with to_page "external". Delivery is not confirmed and errors are
// discarded; callers must not assume the call completes.
func (c *Controller) NotifyUnload() {
	if c.userID == "" {
		return
	}
	c.mu.Lock()
	fromPage := c.currentPath
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]string{
		"from_page": fromPage,
		"to_page":   PageExternal,
		"user_id":   c.userID,
	})
	if err != nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat/navigation-cleanup", bytes.NewReader(payload))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
}
