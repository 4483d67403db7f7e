package services

import (
	"errors"
	"testing"
	"time"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/irfndi/finsight-ml-go/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var forecastNow = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func newTestForecastGenerator() *ForecastGenerator {
	return NewForecastGenerator(DefaultEngineConfig(), quietLogger())
}

func TestForecastGenerator_AlternatingCashFlow(t *testing.T) {
	g := newTestForecastGenerator()

	result, err := g.Generate(alternatingCashFlow(60), "7day", forecastNow)
	require.NoError(t, err)
	require.Len(t, result.Predictions, 7)

	first := result.Predictions[0]
	assert.Equal(t, "2024-03-01", first.Date.String())
	// Trailing 14-day mean of alternating +100/-80 is 10.
	assert.InDelta(t, 10.0, first.PredictedAmount, 0.01)
	assert.InDelta(t, -125.0, first.LowerBound, 0.01)
	assert.InDelta(t, 145.0, first.UpperBound, 0.01)
	assert.Equal(t, 1.0, first.Confidence)
	assert.Equal(t, 0.74, result.Predictions[6].Confidence)

	// Last 7 days average -20/7 against 160/7 for the week before.
	assert.InDelta(t, 10-180.0/49, result.Predictions[1].PredictedAmount, 0.01)
	assert.Equal(t, "2024-03-07", result.Predictions[6].Date.String())

	assert.Equal(t, models.RiskHigh, result.RiskIndicator)
	assert.Equal(t, 100.0, result.RiskScore)

	assert.Equal(t, ModelVersion, result.Metadata.ModelVersion)
	assert.Equal(t, "2024-01-01", result.Metadata.TrainingDataRange.Start.String())
	assert.Equal(t, "2024-02-29", result.Metadata.TrainingDataRange.End.String())
	assert.Equal(t, []string{"daily_cashflow", "trend", "seasonality"}, result.Metadata.FeaturesUsed)
}

func TestForecastGenerator_Invariants(t *testing.T) {
	g := newTestForecastGenerator()
	txs := alternatingCashFlow(90)
	for i := range txs {
		txs[i].Amount += float64(i)
	}

	for _, key := range []string{"7day", "14day", "30day"} {
		t.Run(key, func(t *testing.T) {
			result, err := g.Generate(txs, key, forecastNow)
			require.NoError(t, err)

			prev := 1.0
			for _, p := range result.Predictions {
				assert.LessOrEqual(t, p.LowerBound, p.PredictedAmount)
				assert.LessOrEqual(t, p.PredictedAmount, p.UpperBound)
				assert.GreaterOrEqual(t, p.Confidence, 0.5)
				assert.LessOrEqual(t, p.Confidence, prev)
				prev = p.Confidence
			}
			assert.GreaterOrEqual(t, result.RiskScore, 0.0)
			assert.LessOrEqual(t, result.RiskScore, 100.0)
		})
	}
}

func TestForecastGenerator_HorizonKeys(t *testing.T) {
	g := newTestForecastGenerator()
	txs := alternatingCashFlow(60)

	tests := map[string]int{"7day": 7, "14day": 14, "30day": 30, "90day": 30, "": 30}
	for key, want := range tests {
		result, err := g.Generate(txs, key, forecastNow)
		require.NoError(t, err)
		assert.Len(t, result.Predictions, want, "horizon %q", key)
	}
}

func TestForecastGenerator_InsufficientHistory(t *testing.T) {
	g := newTestForecastGenerator()

	result, err := g.Generate(alternatingCashFlow(59), "7day", forecastNow)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
	assert.True(t, utils.IsValidationError(err))
	assert.Contains(t, err.Error(), "Need at least 60 days")
}

func TestForecastGenerator_CountsDaysNotTransactions(t *testing.T) {
	g := newTestForecastGenerator()
	// 120 transactions spread over 40 days is still short of the window.
	var txs []models.Transaction
	for day := 0; day < 40; day++ {
		txs = append(txs, expense(10, day, "Food & Dining"), income(30, day, "Salary"), expense(5, day, "Shopping"))
	}

	_, err := g.Generate(txs, "30day", forecastNow)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestForecastGenerator_UsesMostRecentWindow(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.LookbackDays = 14
	g := NewForecastGenerator(cfg, quietLogger())

	var txs []models.Transaction
	for day := 0; day < 30; day++ {
		amount := 1000.0
		if day >= 16 {
			amount = 50
		}
		txs = append(txs, income(amount, day, "Salary"))
	}

	result, err := g.Generate(txs, "7day", forecastNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-17", result.Metadata.TrainingDataRange.Start.String())
	assert.Equal(t, "2024-01-30", result.Metadata.TrainingDataRange.End.String())
	assert.InDelta(t, 50.0, result.Predictions[0].PredictedAmount, 0.01)
	assert.Equal(t, models.RiskLow, result.RiskIndicator)
	assert.Zero(t, result.RiskScore)
}

func TestForecastGenerator_Fit(t *testing.T) {
	g := newTestForecastGenerator()

	short := g.fit([]float64{1, 2, 3})
	assert.InDelta(t, 2.0, short.movingAverage, 1e-9)
	assert.Zero(t, short.trend)

	// Between 7 and 13 days the older baseline is the recent average itself.
	medium := g.fit([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Zero(t, medium.trend)
	assert.InDelta(t, 5.5, medium.movingAverage, 1e-9)

	rising := make([]float64, 14)
	for i := range rising {
		rising[i] = float64(i)
	}
	model := g.fit(rising)
	assert.InDelta(t, 1.0, model.trend, 1e-9)
	assert.InDelta(t, 6.5, model.movingAverage, 1e-9)
}

func TestRiskIndicatorForScore(t *testing.T) {
	assert.Equal(t, models.RiskLow, RiskIndicatorForScore(0))
	assert.Equal(t, models.RiskLow, RiskIndicatorForScore(29.9))
	assert.Equal(t, models.RiskMedium, RiskIndicatorForScore(30))
	assert.Equal(t, models.RiskMedium, RiskIndicatorForScore(59.9))
	assert.Equal(t, models.RiskHigh, RiskIndicatorForScore(60))
}
