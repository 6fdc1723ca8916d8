package dto

import "gitmesh-session-be/pkg/store"

// Cleanup strategies accepted by the cleanup endpoint.
const (
	CleanupTypeAll      = "all"
	CleanupTypeInactive = "inactive"
	CleanupTypeSpecific = "specific"
)

type CleanupRequest struct {
	Type       string   `json:"type" validate:"required,oneof=all inactive specific"`
	SessionIDs []string `json:"session_ids,omitempty"`
	UserID     string   `json:"user_id" validate:"required"`
}

type NavigationCleanupRequest struct {
	FromPage string `json:"from_page" validate:"required"`
	ToPage   string `json:"to_page" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
}

type ClearCacheRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type OptimizeCacheRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type HeartbeatResponse struct {
	Success bool           `json:"success"`
	Session *store.Session `json:"session"`
}

type CleanupResponse struct {
	Success       bool                `json:"success"`
	CleanupResult store.CleanupResult `json:"cleanup_result"`
}

type ClearCacheResponse struct {
	Success bool `json:"success"`
}

type CacheStatsResponse struct {
	Success    bool             `json:"success"`
	CacheStats store.CacheStats `json:"cache_stats"`
}

type CacheHealthResponse struct {
	Success      bool               `json:"success"`
	HealthStatus store.HealthStatus `json:"health_status"`
}

type OptimizeCacheResponse struct {
	Success             bool                     `json:"success"`
	OptimizationResults store.OptimizationResult `json:"optimization_results"`
}
