package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	minExpensesForTrend       = 14
	spendingIncreaseRatio     = 1.2
	categoryConcentrationPct  = 40.0
	savingsOpportunityRatePct = 10.0
	healthAttentionScore      = 60.0
)

// InsightsGenerator turns transaction history into explainable observations.
type InsightsGenerator struct {
	config EngineConfig
	logger *logrus.Logger
}

// NewInsightsGenerator creates an InsightsGenerator.
func NewInsightsGenerator(config EngineConfig, logger *logrus.Logger) *InsightsGenerator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InsightsGenerator{
		config: config,
		logger: logger,
	}
}

// Generate returns the insights supported by transactions. healthScore is
// optional; when present a low overall score produces its own insight.
func (g *InsightsGenerator) Generate(transactions []models.Transaction, profile models.Profile, healthScore *models.HealthScore) []models.Insight {
	insights := []models.Insight{}
	if len(transactions) < g.config.MinTransactionsHealth {
		return insights
	}

	var expenses []models.Transaction
	var hasIncome bool
	latest := transactions[0].Date
	for _, tx := range transactions {
		if tx.Date.After(latest.Time) {
			latest = tx.Date
		}
		if tx.IsExpense() {
			expenses = append(expenses, tx)
		} else if tx.IsIncome() {
			hasIncome = true
		}
	}

	if insight, ok := g.spendingIncrease(expenses, latest); ok {
		insights = append(insights, insight)
	}
	if insight, ok := g.categoryConcentration(expenses); ok {
		insights = append(insights, insight)
	}
	if hasIncome && len(expenses) > 0 {
		if insight, ok := g.savingsOpportunity(expenses, profile.MonthlyIncome); ok {
			insights = append(insights, insight)
		}
	}
	if healthScore != nil && healthScore.OverallScore < healthAttentionScore {
		insights = append(insights, models.Insight{
			ID:      uuid.NewString(),
			Type:    "health_score",
			Title:   "Financial Health Needs Attention",
			Message: fmt.Sprintf("Your financial health score is %.1f/100. Focus on improving savings rate and reducing spending volatility.", healthScore.OverallScore),
			Evidence: []models.Evidence{
				{Metric: "health_score", Value: healthScore.OverallScore, Explanation: "Overall financial health score"},
			},
			Priority:   models.PriorityHigh,
			Actionable: true,
		})
	}

	g.logger.WithFields(logrus.Fields{
		"transactions": len(transactions),
		"insights":     len(insights),
	}).Debug("Insights generated")
	return insights
}

// spendingIncrease compares the last seven days of spending with the seven
// days before them.
func (g *InsightsGenerator) spendingIncrease(expenses []models.Transaction, latest models.Date) (models.Insight, bool) {
	if len(expenses) < minExpensesForTrend {
		return models.Insight{}, false
	}

	weekStart := latest.AddDays(-7)
	prevStart := latest.AddDays(-14)
	recent, previous := decimal.Zero, decimal.Zero
	var recentCount, previousCount int
	for _, tx := range expenses {
		amount := decimal.NewFromFloat(tx.Amount)
		switch {
		case !tx.Date.Before(weekStart.Time):
			recent = recent.Add(amount)
			recentCount++
		case !tx.Date.Before(prevStart.Time):
			previous = previous.Add(amount)
			previousCount++
		}
	}
	if recentCount == 0 || previousCount == 0 || !previous.IsPositive() {
		return models.Insight{}, false
	}
	if !recent.GreaterThan(previous.Mul(decimal.NewFromFloat(spendingIncreaseRatio))) {
		return models.Insight{}, false
	}

	recentF, previousF := recent.InexactFloat64(), previous.InexactFloat64()
	increase := recent.Div(previous).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return models.Insight{
		ID:      uuid.NewString(),
		Type:    "spending_increase",
		Title:   "Spending Increase Detected",
		Message: fmt.Sprintf("Your spending increased by %.1f%% compared to last week. This week: $%.2f vs last week: $%.2f.", increase, recentF, previousF),
		Evidence: []models.Evidence{
			{Metric: "this_week_spending", Value: recentF, Explanation: "Total spending this week"},
			{Metric: "last_week_spending", Value: previousF, Explanation: "Total spending last week"},
		},
		Priority:   models.PriorityMedium,
		Actionable: true,
	}, true
}

func (g *InsightsGenerator) categoryConcentration(expenses []models.Transaction) (models.Insight, bool) {
	top, topAmount, total := topExpenseCategory(expenses)
	if !total.IsPositive() {
		return models.Insight{}, false
	}

	pct := topAmount.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
	if pct <= categoryConcentrationPct {
		return models.Insight{}, false
	}

	label := categoryLabel(top)
	amount := topAmount.InexactFloat64()
	return models.Insight{
		ID:      uuid.NewString(),
		Type:    "category_concentration",
		Title:   fmt.Sprintf("High Spending in %s", label),
		Message: fmt.Sprintf("%s accounts for %.1f%% of your total expenses ($%.2f). Consider diversifying spending or reviewing this category.", label, pct, amount),
		Evidence: []models.Evidence{
			{Metric: "category", Value: top, Explanation: "Top spending category"},
			{Metric: "category_percentage", Value: pct, Explanation: "Percentage of total expenses"},
			{Metric: "category_amount", Value: amount, Explanation: "Total spent in category"},
		},
		Priority:   models.PriorityHigh,
		Actionable: true,
	}, true
}

func (g *InsightsGenerator) savingsOpportunity(expenses []models.Transaction, monthlyIncome float64) (models.Insight, bool) {
	if monthlyIncome <= 0 {
		return models.Insight{}, false
	}

	avgMonthly := averageMonthlyExpenses(expenses)
	savings := monthlyIncome - avgMonthly
	rate := savings / monthlyIncome * 100
	if rate >= savingsOpportunityRatePct {
		return models.Insight{}, false
	}

	potential := monthlyIncome*savingsOpportunityRatePct/100 - savings
	return models.Insight{
		ID:      uuid.NewString(),
		Type:    "savings_opportunity",
		Title:   "Savings Opportunity",
		Message: fmt.Sprintf("Your current savings rate is %.1f%%. By reducing expenses by $%.2f per month, you could reach a 10%% savings rate.", rate, potential),
		Evidence: []models.Evidence{
			{Metric: "current_savings_rate", Value: rate, Explanation: "Current monthly savings rate"},
			{Metric: "monthly_income", Value: monthlyIncome, Explanation: "Monthly income"},
			{Metric: "monthly_expenses", Value: avgMonthly, Explanation: "Average monthly expenses"},
		},
		Priority:   models.PriorityHigh,
		Actionable: true,
	}, true
}

// topExpenseCategory returns the category with the largest expense total, its
// total and the total of all expenses. Ties go to the alphabetically first category.
func topExpenseCategory(expenses []models.Transaction) (string, decimal.Decimal, decimal.Decimal) {
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range expenses {
		amount := decimal.NewFromFloat(tx.Amount)
		totals[tx.Category] = totals[tx.Category].Add(amount)
		total = total.Add(amount)
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	var top string
	topAmount := decimal.Zero
	for i, name := range names {
		if i == 0 || totals[name].GreaterThan(topAmount) {
			top, topAmount = name, totals[name]
		}
	}
	return top, topAmount, total
}

// averageMonthlyExpenses averages expense totals over the calendar months
// that contain at least one expense.
func averageMonthlyExpenses(expenses []models.Transaction) float64 {
	byMonth := monthlyTotals(expenses)
	if len(byMonth) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range byMonth {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(byMonth)))).InexactFloat64()
}

type monthKey struct {
	year  int
	month time.Month
}

func monthlyTotals(expenses []models.Transaction) map[monthKey]decimal.Decimal {
	byMonth := make(map[monthKey]decimal.Decimal)
	for _, tx := range expenses {
		key := monthKey{tx.Date.Year(), tx.Date.Month()}
		byMonth[key] = byMonth[key].Add(decimal.NewFromFloat(tx.Amount))
	}
	return byMonth
}

// categoryLabel title-cases a free-form category for display. A Caser keeps
// state, so one is built per call.
func categoryLabel(category string) string {
	return cases.Title(language.English, cases.NoLower).String(category)
}
