package services

import (
	"sort"

	"github.com/irfndi/finsight-ml-go/internal/models"
)

// DailyAggregate is the net cash flow of one calendar day.
type DailyAggregate struct {
	Date      models.Date `json:"date"`
	NetAmount float64     `json:"net_amount"`
}

// FeatureVector is the numeric representation of one transaction used by the
// multivariate outlier detector.
type FeatureVector struct {
	Amount         float64 `json:"amount"`
	DaysSinceStart float64 `json:"days_since_start"`
	CategoryIndex  float64 `json:"category_index"`
}

// Values returns the vector as a fixed-size array in feature order.
func (v FeatureVector) Values() []float64 {
	return []float64{v.Amount, v.DaysSinceStart, v.CategoryIndex}
}

// FeatureSet holds the per-transaction features of one call. CategoryIndex is
// assigned by first appearance in the input, so indices are only comparable
// within the same FeatureSet.
type FeatureSet struct {
	Vectors       []FeatureVector
	CategoryIndex map[string]int
	StartDate     models.Date
}

// FeatureExtractor derives the normalized representations shared by the engines.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a FeatureExtractor.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// DailyCashFlow sums signed amounts per calendar day and returns the days in
// ascending date order. Expenses contribute negatively.
func (fe *FeatureExtractor) DailyCashFlow(transactions []models.Transaction) []DailyAggregate {
	if len(transactions) == 0 {
		return nil
	}

	totals := make(map[models.Date]float64, len(transactions))
	for _, tx := range transactions {
		totals[tx.Date] += tx.SignedAmount()
	}

	daily := make([]DailyAggregate, 0, len(totals))
	for date, net := range totals {
		daily = append(daily, DailyAggregate{Date: date, NetAmount: net})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date.Time)
	})
	return daily
}

// DailyExpenses sums expense amounts per calendar day, in ascending date
// order. Days without an expense are absent.
func (fe *FeatureExtractor) DailyExpenses(transactions []models.Transaction) []DailyAggregate {
	expenses := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.IsExpense() {
			expenses = append(expenses, tx)
		}
	}
	daily := fe.DailyCashFlow(expenses)
	for i := range daily {
		daily[i].NetAmount = -daily[i].NetAmount
	}
	return daily
}

// Extract builds one feature vector per transaction, preserving input order.
// It returns an empty FeatureSet for empty input.
func (fe *FeatureExtractor) Extract(transactions []models.Transaction) FeatureSet {
	set := FeatureSet{CategoryIndex: make(map[string]int)}
	if len(transactions) == 0 {
		return set
	}

	start := transactions[0].Date
	for _, tx := range transactions[1:] {
		if tx.Date.Before(start.Time) {
			start = tx.Date
		}
	}
	set.StartDate = start

	set.Vectors = make([]FeatureVector, len(transactions))
	for i, tx := range transactions {
		idx, ok := set.CategoryIndex[tx.Category]
		if !ok {
			idx = len(set.CategoryIndex)
			set.CategoryIndex[tx.Category] = idx
		}
		set.Vectors[i] = FeatureVector{
			Amount:         tx.Amount,
			DaysSinceStart: float64(tx.Date.DaysSince(start)),
			CategoryIndex:  float64(idx),
		}
	}
	return set
}

// Amounts returns the raw amount column in input order.
func (fe *FeatureExtractor) Amounts(transactions []models.Transaction) []float64 {
	amounts := make([]float64, len(transactions))
	for i, tx := range transactions {
		amounts[i] = tx.Amount
	}
	return amounts
}

// DistinctDays counts the calendar days present in the input.
func (fe *FeatureExtractor) DistinctDays(transactions []models.Transaction) int {
	days := make(map[models.Date]struct{}, len(transactions))
	for _, tx := range transactions {
		days[tx.Date] = struct{}{}
	}
	return len(days)
}
