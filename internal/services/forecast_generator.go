package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/irfndi/finsight-ml-go/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	averagingWindowDays = 14
	trendWindowDays     = 7
	confidenceBandWidth = 1.5
	confidenceDecay     = 0.3
	minConfidence       = 0.5
	lowRiskScore        = 30.0
	mediumRiskScore     = 60.0
)

// ErrInsufficientHistory is wrapped by the validation error returned when the
// transaction history is shorter than the lookback window.
var ErrInsufficientHistory = errors.New("insufficient transaction history")

// ForecastFeatures lists the feature classes a forecast is built from.
var ForecastFeatures = []string{"daily_cashflow", "trend", "seasonality"}

// ForecastGenerator projects daily net cash flow forward using a moving
// average plus linear trend, with volatility-based confidence bands.
type ForecastGenerator struct {
	config    EngineConfig
	extractor *FeatureExtractor
	logger    *logrus.Logger
}

// trendModel holds the fitted parameters of one forecast.
type trendModel struct {
	movingAverage float64
	trend         float64
	volatility    float64
}

// NewForecastGenerator creates a ForecastGenerator.
func NewForecastGenerator(config EngineConfig, logger *logrus.Logger) *ForecastGenerator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ForecastGenerator{
		config:    config,
		extractor: NewFeatureExtractor(),
		logger:    logger,
	}
}

// Generate forecasts horizonKey ("7day", "14day" or "30day") days of net cash
// flow starting at now. It fails with a *utils.ValidationError wrapping
// ErrInsufficientHistory when fewer than the configured lookback days are
// present in transactions.
func (g *ForecastGenerator) Generate(transactions []models.Transaction, horizonKey string, now time.Time) (*models.ForecastResult, error) {
	horizon := g.config.HorizonDays(horizonKey)

	if days := g.extractor.DistinctDays(transactions); days < g.config.LookbackDays {
		return nil, utils.WrapValidationError(ErrInsufficientHistory,
			fmt.Sprintf("Insufficient transaction history. Need at least %d days, got %d.", g.config.LookbackDays, days))
	}

	daily := g.extractor.DailyCashFlow(transactions)
	if len(daily) > g.config.LookbackDays {
		daily = daily[len(daily)-g.config.LookbackDays:]
	}
	window := make([]float64, len(daily))
	for i, d := range daily {
		window[i] = d.NetAmount
	}

	model := g.fit(window)
	predictions := g.project(model, horizon, models.NewDate(now))
	riskScore := g.riskScore(window, predictions)

	g.logger.WithFields(logrus.Fields{
		"horizon":        horizon,
		"window_days":    len(window),
		"moving_average": model.movingAverage,
		"trend":          model.trend,
		"volatility":     model.volatility,
		"risk_score":     riskScore,
	}).Debug("Forecast generated")

	for i := range predictions {
		p := &predictions[i]
		p.PredictedAmount = roundTo(p.PredictedAmount, 2)
		p.LowerBound = roundTo(p.LowerBound, 2)
		p.UpperBound = roundTo(p.UpperBound, 2)
		p.Confidence = roundTo(p.Confidence, 2)
	}

	return &models.ForecastResult{
		Predictions:   predictions,
		RiskIndicator: RiskIndicatorForScore(riskScore),
		RiskScore:     roundTo(riskScore, 1),
		Metadata: models.ForecastMetadata{
			ModelVersion: g.config.ModelVersion,
			TrainingDataRange: models.DateRange{
				Start: daily[0].Date,
				End:   daily[len(daily)-1].Date,
			},
			FeaturesUsed: append([]string(nil), ForecastFeatures...),
		},
	}, nil
}

func (g *ForecastGenerator) fit(window []float64) trendModel {
	period := averagingWindowDays
	if len(window) < period {
		period = len(window)
	}
	recent := window[len(window)-period:]

	var model trendModel
	sma := helper.ChanToSlice(trend.NewSmaWithPeriod[float64](period).Compute(helper.SliceToChan(window)))
	if len(sma) > 0 {
		model.movingAverage = sma[len(sma)-1]
	} else {
		model.movingAverage = mean(recent)
	}

	if len(window) >= trendWindowDays {
		recentAvg := mean(window[len(window)-trendWindowDays:])
		olderAvg := recentAvg
		if len(window) >= 2*trendWindowDays {
			olderAvg = mean(window[len(window)-2*trendWindowDays : len(window)-trendWindowDays])
		}
		model.trend = (recentAvg - olderAvg) / trendWindowDays
	}

	model.volatility = populationStdDev(recent)
	return model
}

func (g *ForecastGenerator) project(model trendModel, horizon int, start models.Date) []models.ForecastPoint {
	points := make([]models.ForecastPoint, horizon)
	band := confidenceBandWidth * model.volatility
	for i := 0; i < horizon; i++ {
		predicted := model.movingAverage + model.trend*float64(i)
		points[i] = models.ForecastPoint{
			Date:            start.AddDays(i),
			PredictedAmount: predicted,
			LowerBound:      predicted - band,
			UpperBound:      predicted + band,
			Confidence:      math.Max(minConfidence, 1-(float64(i)/float64(horizon))*confidenceDecay),
		}
	}
	return points
}

// riskScore combines the window's coefficient of variation, its share of
// negative days and the spread of the predictions into a 0-100 score.
func (g *ForecastGenerator) riskScore(window []float64, predictions []models.ForecastPoint) float64 {
	var cv float64
	if m := mean(window); m != 0 {
		cv = populationStdDev(window) / math.Abs(m)
	}

	var negative int
	for _, v := range window {
		if v < 0 {
			negative++
		}
	}
	negativeRate := float64(negative) / float64(len(window))

	predicted := make([]float64, len(predictions))
	for i, p := range predictions {
		predicted[i] = p.PredictedAmount
	}

	return clamp(cv*50+negativeRate*30+populationVariance(predicted)/1000, 0, 100)
}

// RiskIndicatorForScore buckets a forecast risk score.
func RiskIndicatorForScore(score float64) models.RiskLevel {
	switch {
	case score < lowRiskScore:
		return models.RiskLow
	case score < mediumRiskScore:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
