package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/finsight-ml-go/internal/cache"
	"github.com/irfndi/finsight-ml-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisHealthChecker mocks the Redis health probe.
type MockRedisHealthChecker struct {
	mock.Mock
}

func (m *MockRedisHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// steppingClock returns start on the first call and start+step afterwards.
func steppingClock(start time.Time, step time.Duration) Clock {
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(step)
	}
}

func getHealth(t *testing.T, h *HealthHandler) HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.HealthCheck)

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthHandler_RedisDisabled(t *testing.T) {
	h := NewHealthHandler("finsight-ml", "1.0.0", nil, nil, steppingClock(testNow, 90*time.Second))

	resp := getHealth(t, h)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "finsight-ml", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, "1m30s", resp.Uptime)
	assert.Equal(t, "disabled", resp.Services["redis"])
	assert.Nil(t, resp.Cache)
}

func TestHealthHandler_RedisHealthy(t *testing.T) {
	redisMock := &MockRedisHealthChecker{}
	redisMock.On("HealthCheck", mock.Anything).Return(nil)
	resultCache, _ := newTestResultCache(t)

	h := NewHealthHandler("finsight-ml", "1.0.0", redisMock, resultCache, nil)

	resp := getHealth(t, h)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["redis"])
	require.NotNil(t, resp.Cache)
	assert.Equal(t, "closed", resp.Cache.Breaker)
	redisMock.AssertExpectations(t)
}

func TestHealthHandler_RedisUnhealthyDegrades(t *testing.T) {
	redisMock := &MockRedisHealthChecker{}
	redisMock.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	h := NewHealthHandler("finsight-ml", "1.0.0", redisMock, nil, nil)

	resp := getHealth(t, h)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy: connection refused", resp.Services["redis"])
	redisMock.AssertExpectations(t)
}

func TestHealthHandler_OpenBreakerDegrades(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)
	breaker := cache.NewCircuitBreaker("test", cache.BreakerConfig{FailureThreshold: 2}, testutil.QuietLogger())
	resultCache := cache.NewResultCache(client, time.Minute, breaker, testutil.QuietLogger())
	mr.Close()
	for i := 0; i < 2; i++ {
		resultCache.Get(context.Background(), "finsight:health:x", &struct{}{})
	}
	require.Equal(t, cache.Open, resultCache.BreakerState())

	h := NewHealthHandler("finsight-ml", "1.0.0", nil, resultCache, nil)

	resp := getHealth(t, h)
	assert.Equal(t, "degraded", resp.Status)
	require.NotNil(t, resp.Cache)
	assert.Equal(t, "open", resp.Cache.Breaker)
	assert.Equal(t, int64(2), resp.Cache.Stats.Errors)
}

func TestHealthHandler_Root(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("finsight-ml", "1.0.0", nil, nil, nil)
	router := gin.New()
	router.GET("/", h.Root)

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FinSight AI ML Service", body.Message)
	assert.Equal(t, "1.0.0", body.Version)
	assert.Equal(t, "/api/v1/forecast/generate", body.Endpoints["forecast"])
	assert.Len(t, body.Endpoints, 7)
}
