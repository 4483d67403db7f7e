package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/irfndi/finsight-ml-go/internal/cache"
	"github.com/irfndi/finsight-ml-go/internal/middleware"
	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/irfndi/finsight-ml-go/internal/services"
	"github.com/irfndi/finsight-ml-go/internal/telemetry"
	"github.com/irfndi/finsight-ml-go/internal/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Clock returns the current time. Handlers pass it to the engines explicitly.
type Clock func() time.Time

// Cached operation names, used as cache key segments.
const (
	opAnomaly  = "anomaly"
	opForecast = "forecast"
	opHealth   = "health"
)

type AnomalyRequest struct {
	Transactions []models.Transaction `json:"transactions" binding:"required,dive"`
}

type ForecastRequest struct {
	Transactions []models.Transaction `json:"transactions" binding:"required,dive"`
	ForecastType string               `json:"forecastType"`
}

type HealthRequest struct {
	Transactions []models.Transaction `json:"transactions" binding:"required,dive"`
	Profile      models.Profile       `json:"profile"`
}

type InsightsRequest struct {
	Transactions []models.Transaction `json:"transactions" binding:"required,dive"`
	Profile      models.Profile       `json:"profile"`
	HealthScore  *models.HealthScore  `json:"healthScore,omitempty"`
}

type GoalsRequest struct {
	Transactions []models.Transaction `json:"transactions" binding:"required,dive"`
	Profile      models.Profile       `json:"profile"`
}

type CategoryRequest struct {
	Description string                 `json:"description" binding:"required"`
	Amount      float64                `json:"amount" binding:"gte=0"`
	Type        models.TransactionType `json:"type" binding:"required,oneof=income expense"`
}

type InsightsResponse struct {
	Insights []models.Insight `json:"insights"`
}

type GoalsResponse struct {
	Goals []models.Goal `json:"goals"`
}

// EngineHandler serves the signal engine and the generators built on it.
type EngineHandler struct {
	anomaly    *services.AnomalyDetector
	forecast   *services.ForecastGenerator
	health     *services.HealthScoreCalculator
	insights   *services.InsightsGenerator
	goals      *services.GoalRecommender
	categories *services.CategoryPredictor

	cache  *cache.ResultCache
	now    Clock
	logger *logrus.Logger
}

// NewEngineHandler wires the engines from one immutable configuration.
// resultCache may be nil, which disables caching.
func NewEngineHandler(config services.EngineConfig, resultCache *cache.ResultCache, now Clock, logger *logrus.Logger) *EngineHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &EngineHandler{
		anomaly:    services.NewAnomalyDetector(config, logger),
		forecast:   services.NewForecastGenerator(config, logger),
		health:     services.NewHealthScoreCalculator(config, logger),
		insights:   services.NewInsightsGenerator(config, logger),
		goals:      services.NewGoalRecommender(config, logger),
		categories: services.NewCategoryPredictor(logger),
		cache:      resultCache,
		now:        now,
		logger:     logger,
	}
}

// DetectAnomalies handles POST /api/v1/anomaly/detect.
func (h *EngineHandler) DetectAnomalies(c *gin.Context) {
	var req AnomalyRequest
	body, ok := h.bind(c, &req)
	if !ok {
		return
	}

	key := cache.Key(opAnomaly, body)
	var result models.AnomalyResult
	if h.cache.Get(c.Request.Context(), key, &result) {
		c.JSON(http.StatusOK, result)
		return
	}

	h.trace(c, "engine.anomaly", len(req.Transactions), func(context.Context) error {
		result = h.anomaly.Detect(req.Transactions)
		return nil
	})
	h.cache.Set(c.Request.Context(), key, result)
	c.JSON(http.StatusOK, result)
}

// GenerateForecast handles POST /api/v1/forecast/generate. Predictions start
// at the handler clock's current day, so the day is part of the cache key.
func (h *EngineHandler) GenerateForecast(c *gin.Context) {
	var req ForecastRequest
	body, ok := h.bind(c, &req)
	if !ok {
		return
	}

	now := h.now()
	key := cache.Key(opForecast+":"+models.NewDate(now).String(), body)
	var cached models.ForecastResult
	if h.cache.Get(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	var result *models.ForecastResult
	err := h.trace(c, "engine.forecast", len(req.Transactions), func(context.Context) error {
		var err error
		result, err = h.forecast.Generate(req.Transactions, req.ForecastType, now)
		return err
	})
	if err != nil {
		h.fail(c, err, "Forecast generation failed")
		return
	}
	h.cache.Set(c.Request.Context(), key, result)
	c.JSON(http.StatusOK, result)
}

// CalculateHealthScore handles POST /api/v1/health/score.
func (h *EngineHandler) CalculateHealthScore(c *gin.Context) {
	var req HealthRequest
	body, ok := h.bind(c, &req)
	if !ok {
		return
	}

	key := cache.Key(opHealth, body)
	var score models.HealthScore
	if h.cache.Get(c.Request.Context(), key, &score) {
		c.JSON(http.StatusOK, score)
		return
	}

	h.trace(c, "engine.health", len(req.Transactions), func(context.Context) error {
		score = h.health.Calculate(req.Transactions, req.Profile)
		return nil
	})
	h.cache.Set(c.Request.Context(), key, score)
	c.JSON(http.StatusOK, score)
}

// GenerateInsights handles POST /api/v1/insights/generate.
func (h *EngineHandler) GenerateInsights(c *gin.Context) {
	var req InsightsRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}

	var insights []models.Insight
	h.trace(c, "engine.insights", len(req.Transactions), func(context.Context) error {
		insights = h.insights.Generate(req.Transactions, req.Profile, req.HealthScore)
		return nil
	})
	c.JSON(http.StatusOK, InsightsResponse{Insights: insights})
}

// RecommendGoals handles POST /api/v1/goals/recommend.
func (h *EngineHandler) RecommendGoals(c *gin.Context) {
	var req GoalsRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}

	var goals []models.Goal
	h.trace(c, "engine.goals", len(req.Transactions), func(context.Context) error {
		goals = h.goals.Recommend(req.Transactions, req.Profile, h.now())
		return nil
	})
	c.JSON(http.StatusOK, GoalsResponse{Goals: goals})
}

// PredictCategory handles POST /api/v1/predict/category.
func (h *EngineHandler) PredictCategory(c *gin.Context) {
	var req CategoryRequest
	if _, ok := h.bind(c, &req); !ok {
		return
	}

	prediction := h.categories.Predict(req.Description, req.Amount, req.Type)
	trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("category", prediction.Category))
	c.JSON(http.StatusOK, prediction)
}

// bind decodes and validates the JSON body into req. The raw body is returned
// for cache keying. On failure a 400 has already been written.
func (h *EngineHandler) bind(c *gin.Context, req interface{}) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}
	if err := binding.JSON.BindBody(body, req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": middleware.GetRequestID(c),
		}).WithError(err).Debug("Rejected request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return nil, false
	}
	return body, true
}

// trace runs fn inside an engine span carrying the transaction count.
func (h *EngineHandler) trace(c *gin.Context, name string, transactions int, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(c.Request.Context(), telemetry.GetEngineTracer(), name,
		attribute.Int("transactions", transactions))
	defer span.End()

	err := fn(ctx)
	telemetry.RecordError(span, err)
	return err
}

// fail maps engine errors to responses: validation errors are the caller's
// to fix and keep their message, anything else is reported opaquely.
func (h *EngineHandler) fail(c *gin.Context, err error, message string) {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}

	telemetry.RecordError(trace.SpanFromContext(c.Request.Context()), err)
	h.logger.WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"request_id": middleware.GetRequestID(c),
	}).WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
