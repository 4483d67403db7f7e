package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/finsight-ml-go/internal/cache"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusDisabled  = "disabled"
	statusUnhealthy = "unhealthy"

	bytesPerMB = 1024 * 1024
)

// RedisHealthChecker is the part of the Redis client the health check needs.
type RedisHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Services  map[string]string `json:"services"`
	Cache     *CacheStatus      `json:"cache,omitempty"`
	System    *SystemStatus     `json:"system,omitempty"`
}

type CacheStatus struct {
	Breaker string                 `json:"breaker"`
	Stats   cache.ResultCacheStats `json:"stats"`
}

type SystemStatus struct {
	CPUs          int     `json:"cpus"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// HealthHandler reports liveness and the state of optional dependencies.
type HealthHandler struct {
	service   string
	version   string
	redis     RedisHealthChecker
	cache     *cache.ResultCache
	startTime time.Time
	now       Clock
}

// NewHealthHandler creates a HealthHandler. redis and resultCache are nil
// when the result cache is disabled.
func NewHealthHandler(service, version string, redis RedisHealthChecker, resultCache *cache.ResultCache, now Clock) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{
		service:   service,
		version:   version,
		redis:     redis,
		cache:     resultCache,
		startTime: now(),
		now:       now,
	}
}

// HealthCheck handles GET /health. The engines have no external
// dependencies, so an unreachable Redis degrades the service but keeps it up.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	now := h.now()
	resp := HealthResponse{
		Status:    statusHealthy,
		Service:   h.service,
		Version:   h.version,
		Timestamp: now,
		Uptime:    now.Sub(h.startTime).Round(time.Second).String(),
		Services:  map[string]string{"redis": statusDisabled},
		System:    systemStatus(c.Request.Context()),
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			resp.Services["redis"] = statusUnhealthy + ": " + err.Error()
			resp.Status = statusDegraded
		} else {
			resp.Services["redis"] = statusHealthy
		}
	}
	if h.cache != nil {
		resp.Cache = &CacheStatus{
			Breaker: h.cache.BreakerState().String(),
			Stats:   h.cache.Stats(),
		}
		if h.cache.BreakerState() == cache.Open {
			resp.Status = statusDegraded
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Root handles GET / with the service banner.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "FinSight AI ML Service",
		"version": h.version,
		"endpoints": gin.H{
			"health":               "/health",
			"anomaly_detection":    "/api/v1/anomaly/detect",
			"forecast":             "/api/v1/forecast/generate",
			"health_score":         "/api/v1/health/score",
			"insights":             "/api/v1/insights/generate",
			"goal_recommendations": "/api/v1/goals/recommend",
			"category_prediction":  "/api/v1/predict/category",
		},
	})
}

// systemStatus samples host memory. It returns nil when the host does not
// expose the counters.
func systemStatus(ctx context.Context) *SystemStatus {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil
	}
	status := &SystemStatus{
		MemoryTotalMB: vm.Total / bytesPerMB,
		MemoryUsedMB:  vm.Used / bytesPerMB,
		MemoryPercent: vm.UsedPercent,
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		status.CPUs = n
	}
	return status
}
