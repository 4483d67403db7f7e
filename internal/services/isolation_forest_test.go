package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterWithOutlier() [][]float64 {
	points := make([][]float64, 0, 21)
	for i := 0; i < 20; i++ {
		points = append(points, []float64{10 + float64(i%5)*0.1, float64(i % 4)})
	}
	return append(points, []float64{90, 30})
}

func TestIsolationForest_FlagsOutlier(t *testing.T) {
	forest := NewIsolationForest(IsolationForestConfig{Estimators: 100, Contamination: 0.05, Seed: 7})

	result, err := forest.FitPredict(clusterWithOutlier())
	require.NoError(t, err)
	require.Len(t, result.Scores, 21)
	assert.Equal(t, []int{20}, result.Flagged)

	for i := 0; i < 20; i++ {
		assert.Less(t, result.Scores[i], result.Scores[20])
	}
	for _, s := range result.Scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestIsolationForest_DeterministicWithSeed(t *testing.T) {
	points := clusterWithOutlier()
	cfg := IsolationForestConfig{Estimators: 50, Contamination: 0.1, Seed: 99}

	first, err := NewIsolationForest(cfg).FitPredict(points)
	require.NoError(t, err)
	second, err := NewIsolationForest(cfg).FitPredict(points)
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Flagged, second.Flagged)
}

func TestIsolationForest_ContaminationControlsFlagCount(t *testing.T) {
	points := clusterWithOutlier()

	result, err := NewIsolationForest(IsolationForestConfig{Contamination: 0.2, Seed: 1}).FitPredict(points)
	require.NoError(t, err)
	assert.Len(t, result.Flagged, 4)
	assert.Equal(t, 20, result.Flagged[0])
}

func TestIsolationForest_TooFewSamples(t *testing.T) {
	forest := NewIsolationForest(IsolationForestConfig{MinSamples: 10})
	_, err := forest.FitPredict([][]float64{{1}, {2}, {3}})
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestIsolationForest_NonFiniteFeature(t *testing.T) {
	points := clusterWithOutlier()
	points[3] = []float64{math.NaN(), 1}

	_, err := NewIsolationForest(IsolationForestConfig{}).FitPredict(points)
	assert.Error(t, err)
}

func TestIsolationForest_IdenticalPoints(t *testing.T) {
	points := make([][]float64, 12)
	for i := range points {
		points[i] = []float64{5, 5, 5}
	}

	result, err := NewIsolationForest(IsolationForestConfig{Seed: 3}).FitPredict(points)
	require.NoError(t, err)
	for _, s := range result.Scores {
		assert.InDelta(t, result.Scores[0], s, 1e-12)
	}
	assert.Empty(t, result.Flagged)
}

func TestAveragePathLength(t *testing.T) {
	assert.Zero(t, averagePathLength(0))
	assert.Zero(t, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.24, averagePathLength(256), 0.01)
}
