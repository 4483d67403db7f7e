package services

import (
	"testing"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureExtractor_DailyCashFlow(t *testing.T) {
	fe := NewFeatureExtractor()
	txs := []models.Transaction{
		expense(30, 2, "Shopping"),
		income(200, 0, "Salary"),
		expense(50, 0, "Food & Dining"),
		expense(20, 2, "Transportation"),
	}

	daily := fe.DailyCashFlow(txs)
	require.Len(t, daily, 2)
	assert.Equal(t, "2024-01-01", daily[0].Date.String())
	assert.Equal(t, 150.0, daily[0].NetAmount)
	assert.Equal(t, "2024-01-03", daily[1].Date.String())
	assert.Equal(t, -50.0, daily[1].NetAmount)
}

func TestFeatureExtractor_DailyCashFlow_Empty(t *testing.T) {
	fe := NewFeatureExtractor()
	assert.Empty(t, fe.DailyCashFlow(nil))
	assert.Empty(t, fe.Extract(nil).Vectors)
}

func TestFeatureExtractor_DailyExpenses(t *testing.T) {
	fe := NewFeatureExtractor()
	txs := []models.Transaction{
		income(1000, 0, "Salary"),
		expense(40, 1, "Food & Dining"),
		expense(60, 1, "Shopping"),
		expense(25, 3, "Transportation"),
	}

	daily := fe.DailyExpenses(txs)
	require.Len(t, daily, 2)
	assert.Equal(t, 100.0, daily[0].NetAmount)
	assert.Equal(t, 25.0, daily[1].NetAmount)
}

func TestFeatureExtractor_Extract(t *testing.T) {
	fe := NewFeatureExtractor()
	txs := []models.Transaction{
		expense(10, 5, "Shopping"),
		expense(20, 3, "Food & Dining"),
		expense(30, 9, "Shopping"),
		income(500, 4, "Salary"),
	}

	set := fe.Extract(txs)
	require.Len(t, set.Vectors, 4)
	assert.Equal(t, "2024-01-04", set.StartDate.String())
	assert.Equal(t, map[string]int{"Shopping": 0, "Food & Dining": 1, "Salary": 2}, set.CategoryIndex)

	assert.Equal(t, FeatureVector{Amount: 10, DaysSinceStart: 2, CategoryIndex: 0}, set.Vectors[0])
	assert.Equal(t, FeatureVector{Amount: 20, DaysSinceStart: 0, CategoryIndex: 1}, set.Vectors[1])
	assert.Equal(t, FeatureVector{Amount: 30, DaysSinceStart: 6, CategoryIndex: 0}, set.Vectors[2])
	assert.Equal(t, []float64{500, 1, 2}, set.Vectors[3].Values())
}

func TestFeatureExtractor_DistinctDays(t *testing.T) {
	fe := NewFeatureExtractor()
	txs := []models.Transaction{
		expense(10, 0, "Shopping"),
		expense(10, 0, "Shopping"),
		expense(10, 1, "Shopping"),
	}
	assert.Equal(t, 2, fe.DistinctDays(txs))
	assert.Equal(t, []float64{10, 10, 10}, fe.Amounts(txs))
}
