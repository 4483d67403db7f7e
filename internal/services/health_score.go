package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultSubScore        = 50.0
	strengthThreshold      = 70.0
	weaknessThreshold      = 50.0
	recommendThreshold     = 60.0
	minExpensesForZScore   = 3
	insufficientHistoryMsg = "Insufficient transaction history"
)

// DefaultHealthWeights returns the weight of every sub-score. The weights sum to 1.
func DefaultHealthWeights() map[string]float64 {
	return map[string]float64{
		models.SubScoreSavingsRate:          0.25,
		models.SubScoreSpendingVolatility:   0.20,
		models.SubScoreIncomeToExpenseRatio: 0.25,
		models.SubScoreBudgetAdherence:      0.20,
		models.SubScoreAnomaly:              0.10,
	}
}

var healthRecommendations = map[string]string{
	models.SubScoreSavingsRate:          "Increase your savings rate. Aim for at least 20% of income.",
	models.SubScoreSpendingVolatility:   "Reduce spending volatility. Try to maintain consistent daily spending patterns.",
	models.SubScoreIncomeToExpenseRatio: "Your expenses are high relative to income. Consider reducing discretionary spending.",
	models.SubScoreBudgetAdherence:      "Improve budget adherence. Track spending against your budget categories.",
	models.SubScoreAnomaly:              "Review unusual transactions. Some spending patterns may need attention.",
}

const (
	onTrackRecommendation  = "Keep up the good work! Your financial health is on track."
	moreDataRecommendation = "Add more transactions to get accurate health score"
)

// HealthMetrics are the raw facts the sub-scores are derived from.
type HealthMetrics struct {
	TotalIncome          float64
	TotalExpenses        float64
	Savings              float64
	SavingsRate          float64
	AvgDailySpending     float64
	SpendingStdDev       float64
	IncomeToExpenseRatio float64
	BudgetUtilization    float64
	AnomalyCount         int
	TransactionCount     int
}

// HealthScoreCalculator combines five weighted sub-scores into a 0-100
// financial health score.
type HealthScoreCalculator struct {
	config    EngineConfig
	weights   map[string]float64
	extractor *FeatureExtractor
	logger    *logrus.Logger
}

// NewHealthScoreCalculator creates a HealthScoreCalculator with the default weights.
func NewHealthScoreCalculator(config EngineConfig, logger *logrus.Logger) *HealthScoreCalculator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthScoreCalculator{
		config:    config,
		weights:   DefaultHealthWeights(),
		extractor: NewFeatureExtractor(),
		logger:    logger,
	}
}

// Weights returns a copy of the sub-score weights.
func (h *HealthScoreCalculator) Weights() map[string]float64 {
	out := make(map[string]float64, len(h.weights))
	for k, v := range h.weights {
		out[k] = v
	}
	return out
}

// Calculate scores transactions, counting expense anomalies with the shared
// z-score detector. Budget utilization is 0 because budget data is not part
// of the transaction history.
func (h *HealthScoreCalculator) Calculate(transactions []models.Transaction, profile models.Profile) models.HealthScore {
	return h.calculate(transactions, profile, externalHealthInputs{anomalyCount: -1})
}

// CalculateWithAnomalyCount scores transactions using an anomaly count supplied
// by the caller instead of the built-in z-score count.
func (h *HealthScoreCalculator) CalculateWithAnomalyCount(transactions []models.Transaction, profile models.Profile, anomalyCount int) models.HealthScore {
	if anomalyCount < 0 {
		anomalyCount = 0
	}
	return h.calculate(transactions, profile, externalHealthInputs{anomalyCount: anomalyCount})
}

// CalculateWithBudgetUtilization scores transactions using a budget
// utilization percentage computed by a budgeting service.
func (h *HealthScoreCalculator) CalculateWithBudgetUtilization(transactions []models.Transaction, profile models.Profile, utilization float64) models.HealthScore {
	if utilization < 0 || math.IsNaN(utilization) {
		utilization = 0
	}
	return h.calculate(transactions, profile, externalHealthInputs{anomalyCount: -1, budgetUtilization: utilization})
}

// externalHealthInputs are facts the transaction history cannot provide.
// A negative anomalyCount keeps the built-in count.
type externalHealthInputs struct {
	anomalyCount      int
	budgetUtilization float64
}

func (h *HealthScoreCalculator) calculate(transactions []models.Transaction, profile models.Profile, external externalHealthInputs) models.HealthScore {
	if len(transactions) < h.config.MinTransactionsHealth {
		return h.defaultScore(insufficientHistoryMsg)
	}

	metrics := h.Metrics(transactions, profile)
	if external.anomalyCount >= 0 {
		metrics.AnomalyCount = external.anomalyCount
	}
	metrics.BudgetUtilization = external.budgetUtilization

	scores := map[string]float64{
		models.SubScoreSavingsRate:          scoreSavingsRate(metrics.SavingsRate),
		models.SubScoreSpendingVolatility:   scoreSpendingVolatility(metrics.SpendingStdDev, metrics.AvgDailySpending),
		models.SubScoreIncomeToExpenseRatio: scoreIncomeToExpenseRatio(metrics.IncomeToExpenseRatio),
		models.SubScoreBudgetAdherence:      scoreBudgetAdherence(metrics.BudgetUtilization),
		models.SubScoreAnomaly:              scoreAnomalies(metrics.AnomalyCount, metrics.TransactionCount),
	}

	var overall float64
	subScores := make(map[string]models.SubScore, len(scores))
	for _, name := range models.SubScoreOrder {
		overall += scores[name] * h.weights[name]
		subScores[name] = models.SubScore{Score: roundTo(scores[name], 1), Weight: h.weights[name]}
	}
	overall = clamp(overall, 0, 100)

	h.logger.WithFields(logrus.Fields{
		"transactions":  metrics.TransactionCount,
		"overall_score": overall,
		"savings_rate":  metrics.SavingsRate,
		"anomaly_count": metrics.AnomalyCount,
	}).Debug("Health score calculated")

	return models.HealthScore{
		OverallScore:    roundTo(overall, 1),
		SubScores:       subScores,
		Explanation:     explainHealthScore(overall, scores, metrics),
		Metrics:         metrics.toMap(),
		Recommendations: recommendHealthActions(scores),
	}
}

// Metrics derives the raw health facts from transactions.
func (h *HealthScoreCalculator) Metrics(transactions []models.Transaction, profile models.Profile) HealthMetrics {
	income := decimal.Zero
	expenses := decimal.Zero
	var expenseAmounts []float64
	for _, tx := range transactions {
		amount := decimal.NewFromFloat(math.Abs(tx.Amount))
		switch {
		case tx.IsIncome():
			income = income.Add(amount)
		case tx.IsExpense():
			expenses = expenses.Add(amount)
			expenseAmounts = append(expenseAmounts, math.Abs(tx.Amount))
		}
	}
	savings := income.Sub(expenses)

	m := HealthMetrics{
		TotalIncome:      income.InexactFloat64(),
		TotalExpenses:    expenses.InexactFloat64(),
		Savings:          savings.InexactFloat64(),
		TransactionCount: len(transactions),
	}

	if income.IsPositive() {
		m.SavingsRate = savings.Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	if expenses.IsPositive() {
		m.IncomeToExpenseRatio = income.Div(expenses).InexactFloat64()
	} else {
		m.IncomeToExpenseRatio = math.Inf(1)
	}

	daily := h.extractor.DailyExpenses(transactions)
	if len(daily) > 0 {
		totals := make([]float64, len(daily))
		for i, d := range daily {
			totals[i] = d.NetAmount
		}
		m.AvgDailySpending = mean(totals)
		m.SpendingStdDev = sampleStdDev(totals)
	}

	m.AnomalyCount = CountAmountAnomalies(expenseAmounts, h.config.ZScoreThreshold)
	return m
}

// CountAmountAnomalies counts amounts whose z-score exceeds threshold. Fewer
// than three amounts never produce an anomaly.
func CountAmountAnomalies(amounts []float64, threshold float64) int {
	if len(amounts) < minExpensesForZScore {
		return 0
	}
	return len(ZScoreOutliers(amounts, threshold).Indices)
}

func (m HealthMetrics) toMap() map[string]float64 {
	out := map[string]float64{
		"totalIncome":       m.TotalIncome,
		"totalExpenses":     m.TotalExpenses,
		"savings":           m.Savings,
		"savingsRate":       m.SavingsRate,
		"avgDailySpending":  m.AvgDailySpending,
		"spendingStdDev":    m.SpendingStdDev,
		"budgetUtilization": m.BudgetUtilization,
		"anomalyCount":      float64(m.AnomalyCount),
	}
	if !math.IsInf(m.IncomeToExpenseRatio, 0) {
		out["incomeToExpenseRatio"] = m.IncomeToExpenseRatio
	}
	return out
}

func (h *HealthScoreCalculator) defaultScore(reason string) models.HealthScore {
	subScores := make(map[string]models.SubScore, len(h.weights))
	for _, name := range models.SubScoreOrder {
		subScores[name] = models.SubScore{Score: defaultSubScore, Weight: h.weights[name]}
	}
	return models.HealthScore{
		OverallScore:    defaultSubScore,
		SubScores:       subScores,
		Explanation:     reason + ". Default score assigned.",
		Metrics:         map[string]float64{},
		Recommendations: []string{moreDataRecommendation},
	}
}

// scoreSavingsRate maps a savings rate in percent to a score. The rate is
// divided by 0.20, so any positive rate of at least 0.2% scores 100.
func scoreSavingsRate(savingsRate float64) float64 {
	return clamp(savingsRate/0.20*100, 0, 100)
}

func scoreSpendingVolatility(stdDev, avgDailySpending float64) float64 {
	if avgDailySpending == 0 {
		return 100
	}
	cv := stdDev / avgDailySpending
	return clamp(100-cv*200, 0, 100)
}

func scoreIncomeToExpenseRatio(ratio float64) float64 {
	switch {
	case ratio >= 1.2:
		return 100
	case ratio >= 1.0:
		return clamp(50+(ratio-1.0)*250, 0, 100)
	default:
		return clamp(ratio/0.8*50, 0, 100)
	}
}

func scoreBudgetAdherence(utilization float64) float64 {
	switch {
	case utilization <= 80:
		return 100
	case utilization <= 100:
		return clamp(100-(utilization-80)*5, 0, 100)
	default:
		return 0
	}
}

func scoreAnomalies(anomalyCount, total int) float64 {
	if total <= 0 {
		return 100
	}
	rate := float64(anomalyCount) / float64(total)
	return clamp(100-rate*1000, 0, 100)
}

func healthLevel(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

func explainHealthScore(overall float64, scores map[string]float64, m HealthMetrics) string {
	var strengths, weaknesses []string
	for _, name := range models.SubScoreOrder {
		switch s := scores[name]; {
		case s >= strengthThreshold:
			strengths = append(strengths, name)
		case s < weaknessThreshold:
			weaknesses = append(weaknesses, name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your financial health score is %.1f/100 (%s). ", overall, healthLevel(overall))
	if len(strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s. ", strings.Join(strengths, ", "))
	}
	if len(weaknesses) > 0 {
		fmt.Fprintf(&b, "Areas for improvement: %s. ", strings.Join(weaknesses, ", "))
	}
	fmt.Fprintf(&b, "Savings rate: %.1f%%. ", m.SavingsRate)
	fmt.Fprintf(&b, "Monthly income: $%.2f, expenses: $%.2f.", m.TotalIncome, m.TotalExpenses)
	return b.String()
}

func recommendHealthActions(scores map[string]float64) []string {
	var recs []string
	for _, name := range models.SubScoreOrder {
		if scores[name] < recommendThreshold {
			recs = append(recs, healthRecommendations[name])
		}
	}
	if len(recs) == 0 {
		return []string{onTrackRecommendation}
	}
	return recs
}
