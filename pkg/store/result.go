package store

// CleanupResult summarizes one cleanup call. Transient response value,
// never persisted.
type CleanupResult struct {
	RepositoryCache bool    `json:"repository_cache"`
	SessionCache    bool    `json:"session_cache"`
	ContextCache    bool    `json:"context_cache"`
	EntriesCleaned  int     `json:"entries_cleaned"`
	MemoryFreedMB   float64 `json:"memory_freed_mb"`
	CleanupTimeMS   int64   `json:"cleanup_time_ms"`
}

// CacheStats is the read-only aggregate for one user's cache entries.
type CacheStats struct {
	TotalSessions   int     `json:"total_sessions"`
	ActiveSessions  int     `json:"active_sessions"`
	MemoryUsageMB   float64 `json:"memory_usage_mb"`
	HitRate         float64 `json:"hit_rate"`
	FallbackEntries int     `json:"fallback_entries"`
}

// HealthStatus reports backend reachability and breaker state.
type HealthStatus struct {
	IsHealthy          bool    `json:"is_healthy"`
	ConnectionStatus   string  `json:"connection_status"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
	ResponseTimeMS     float64 `json:"response_time_ms"`
	ErrorCount         int     `json:"error_count"`
	BreakerState       string  `json:"breaker_state"`
}

// OptimizationResult summarizes an optimize-cache pass.
type OptimizationResult struct {
	CleanedEntries   int     `json:"cleaned_entries"`
	MemorySavedMB    float64 `json:"memory_saved_mb"`
	OptimizationTime float64 `json:"optimization_time"`
}
