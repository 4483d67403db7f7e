package services

import (
	"math"
	"sort"
)

// ZScoreResult is the outcome of the univariate z-score detector. Scores holds
// |z| for every input value; Indices lists the values whose score exceeds the
// threshold, in ascending order.
type ZScoreResult struct {
	Indices []int
	Scores  []float64
	Mean    float64
	StdDev  float64
}

// Score returns the z-score for index i, or fallback when i has none.
func (r ZScoreResult) Score(i int, fallback float64) float64 {
	if i < 0 || i >= len(r.Scores) {
		return fallback
	}
	return r.Scores[i]
}

// ZScoreOutliers flags values whose absolute z-score, computed against the
// population mean and standard deviation, is strictly greater than threshold.
// A zero standard deviation yields a score of 0 for every value.
func ZScoreOutliers(values []float64, threshold float64) ZScoreResult {
	result := ZScoreResult{Scores: make([]float64, len(values))}
	if len(values) == 0 {
		return result
	}

	result.Mean = mean(values)
	result.StdDev = populationStdDev(values)
	if result.StdDev == 0 {
		return result
	}

	for i, v := range values {
		z := math.Abs(v-result.Mean) / result.StdDev
		result.Scores[i] = z
		if z > threshold {
			result.Indices = append(result.Indices, i)
		}
	}
	return result
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values))
}

func populationStdDev(values []float64) float64 {
	return math.Sqrt(populationVariance(values))
}

// sampleStdDev uses the n-1 denominator and is 0 for fewer than two values.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	return math.Sqrt(populationVariance(values) * float64(n) / float64(n-1))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, places int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percentile returns the linearly interpolated q-th percentile (0..100) of values.
func percentile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
