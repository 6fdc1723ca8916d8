package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

// Quick health probe against a running instance:
//
//	go run ./cmd/cachecheck http://localhost:3000
func main() {
	baseURL := "http://localhost:3000"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/chat/cache-health?user_id=cachecheck")
	if err != nil {
		color.Red("✗ request failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body struct {
		Success      bool `json:"success"`
		HealthStatus struct {
			IsHealthy        bool    `json:"is_healthy"`
			ConnectionStatus string  `json:"connection_status"`
			ResponseTimeMS   float64 `json:"response_time_ms"`
			ErrorCount       int     `json:"error_count"`
			BreakerState     string  `json:"breaker_state"`
		} `json:"health_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		color.Red("✗ malformed response: %v", err)
		os.Exit(1)
	}

	hs := body.HealthStatus
	fmt.Printf("backend:  %s\n", hs.ConnectionStatus)
	fmt.Printf("breaker:  %s (failures: %d)\n", hs.BreakerState, hs.ErrorCount)
	fmt.Printf("latency:  %.2fms\n", hs.ResponseTimeMS)

	if hs.IsHealthy {
		color.Green("✓ cache backend healthy")
		return
	}
	color.Yellow("⚠ cache backend degraded, fallback store is serving")
	os.Exit(1)
}
