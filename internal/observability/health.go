package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"content_system/internal/cache"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthConfig holds configuration for the health endpoint
type HealthConfig struct {
	// Logger for structured logging
	Logger *slog.Logger

	// DatabasePool is pinged when set
	DatabasePool *pgxpool.Pool

	// Cache is pinged when set; a cache failure degrades rather than
	// fails the service, since the resolver works without it
	Cache cache.Cache

	// CheckTimeout bounds each individual check
	// Default: 5s
	CheckTimeout time.Duration

	// IncludeSystemInfo adds runtime stats to the response
	IncludeSystemInfo bool
}

// DefaultHealthConfig returns a default health configuration
func DefaultHealthConfig() *HealthConfig {
	return &HealthConfig{
		CheckTimeout:      5 * time.Second,
		IncludeSystemInfo: true,
	}
}

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	System    *SystemInfo            `json:"system,omitempty"`
}

// CheckResult is the result of a single component check
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// SystemInfo contains runtime-level information
type SystemInfo struct {
	Goroutines  int    `json:"goroutines"`
	MemoryAlloc uint64 `json:"memory_alloc_mb"`
	MemorySys   uint64 `json:"memory_sys_mb"`
	NumCPU      int    `json:"num_cpu"`
	NumGC       uint32 `json:"num_gc"`
}

var (
	startTime = time.Now()
	version   = "1.0.0"
)

// SetVersion sets the application version reported by health checks
func SetVersion(v string) {
	version = v
}

// HealthHandler returns the health endpoint
// Endpoint: GET /healthz
func HealthHandler(config *HealthConfig) http.HandlerFunc {
	if config == nil {
		config = DefaultHealthConfig()
	}
	if config.CheckTimeout == 0 {
		config.CheckTimeout = 5 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.CheckTimeout)
		defer cancel()

		response := &HealthResponse{
			Status:    StatusHealthy,
			Timestamp: time.Now().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Version:   version,
			Checks:    make(map[string]CheckResult),
		}

		if config.IncludeSystemInfo {
			response.System = getSystemInfo()
		}

		if config.DatabasePool != nil {
			result := timedCheck(func() error { return config.DatabasePool.Ping(ctx) })
			response.Checks["database"] = result
			if result.Status == StatusUnhealthy {
				response.Status = StatusUnhealthy
			}
		}

		if config.Cache != nil {
			result := timedCheck(func() error { return config.Cache.Ping(ctx) })
			if result.Status == StatusUnhealthy {
				// resolver degrades to direct lookups without a cache
				result.Status = StatusDegraded
			}
			response.Checks["cache"] = result
			if result.Status == StatusDegraded && response.Status == StatusHealthy {
				response.Status = StatusDegraded
			}
		}

		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
			logger.Warn("health check failed", "checks", response.Checks)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode health response", "error", err)
		}
	}
}

// LivenessHandler returns a minimal liveness probe
// Endpoint: GET /live
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func timedCheck(check func() error) CheckResult {
	start := time.Now()
	err := check()
	result := CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

func getSystemInfo() *SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &SystemInfo{
		Goroutines:  runtime.NumGoroutine(),
		MemoryAlloc: mem.Alloc / 1024 / 1024,
		MemorySys:   mem.Sys / 1024 / 1024,
		NumCPU:      runtime.NumCPU(),
		NumGC:       mem.NumGC,
	}
}
