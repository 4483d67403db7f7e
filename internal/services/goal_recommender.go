package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultSavingsTargetPct = 20.0
	categoryIncomeShare     = 0.3
	categoryCapFactor       = 0.9
	dailyVariabilityRatio   = 1.2
	dailyCapFactor          = 1.1
	monthlyGoalDays         = 30
	dailyGoalDays           = 7
	dailySpendingPercentile = 75.0
)

// GoalRecommender proposes financial goals from spending patterns.
type GoalRecommender struct {
	config    EngineConfig
	extractor *FeatureExtractor
	logger    *logrus.Logger
}

// NewGoalRecommender creates a GoalRecommender.
func NewGoalRecommender(config EngineConfig, logger *logrus.Logger) *GoalRecommender {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GoalRecommender{
		config:    config,
		extractor: NewFeatureExtractor(),
		logger:    logger,
	}
}

// Recommend returns goals for the supplied history. Goal periods start at now.
func (r *GoalRecommender) Recommend(transactions []models.Transaction, profile models.Profile, now time.Time) []models.Goal {
	goals := []models.Goal{}
	if len(transactions) < r.config.MinTransactionsHealth {
		return goals
	}

	start := models.NewDate(now)
	var expenses []models.Transaction
	for _, tx := range transactions {
		if tx.IsExpense() {
			expenses = append(expenses, tx)
		}
	}
	income := profile.MonthlyIncome

	if income > 0 {
		avgMonthly := averageMonthlyExpenses(expenses)
		var currentRate float64
		if avgMonthly > 0 {
			currentRate = (income - avgMonthly) / income * 100
		}
		targetRate := profile.SavingsTarget(defaultSavingsTargetPct)
		if currentRate < targetRate {
			goals = append(goals, savingsGoal(start, income*targetRate/100, targetRate, currentRate))
		}
	}

	if goal, ok := categoryLimitGoal(start, expenses, income); ok {
		goals = append(goals, goal)
	}

	if len(expenses) > 0 {
		daily := r.extractor.DailyExpenses(expenses)
		totals := make([]float64, len(daily))
		for i, d := range daily {
			totals[i] = d.NetAmount
		}
		avgDaily := mean(totals)
		if percentile(totals, dailySpendingPercentile) > avgDaily*dailyVariabilityRatio {
			goals = append(goals, dailySpendingGoal(start, avgDaily*dailyCapFactor, avgDaily))
		}
	}

	r.logger.WithFields(logrus.Fields{
		"transactions": len(transactions),
		"goals":        len(goals),
	}).Debug("Goals recommended")
	return goals
}

func savingsGoal(start models.Date, target, targetRate, currentRate float64) models.Goal {
	return models.Goal{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("Achieve %g%% Savings Rate", targetRate),
		Description: fmt.Sprintf("Increase savings rate from %.1f%% to %g%%", currentRate, targetRate),
		Type:        "savings_target",
		TargetValue: target,
		Period:      "monthly",
		StartDate:   start,
		EndDate:     start.AddDays(monthlyGoalDays),
		Reasoning:   fmt.Sprintf("Current savings rate (%.1f%%) is below target (%g%%). Aim to save $%.2f this month.", currentRate, targetRate, target),
		Evidence: []models.Evidence{
			{Metric: "current_savings_rate", Value: currentRate, Explanation: "Current monthly savings rate"},
			{Metric: "target_savings_rate", Value: targetRate, Explanation: "Target savings rate from preferences"},
		},
	}
}

// categoryLimitGoal caps the top expense category when its total exceeds a
// share of monthly income. The cap is a reduction of the category's average
// over the months it appears in.
func categoryLimitGoal(start models.Date, expenses []models.Transaction, income float64) (models.Goal, bool) {
	top, topAmount, _ := topExpenseCategory(expenses)
	if len(expenses) == 0 || !topAmount.GreaterThan(decimal.NewFromFloat(income*categoryIncomeShare)) {
		return models.Goal{}, false
	}

	var inCategory []models.Transaction
	for _, tx := range expenses {
		if tx.Category == top {
			inCategory = append(inCategory, tx)
		}
	}
	months := len(monthlyTotals(inCategory))
	avg := topAmount.Div(decimal.NewFromInt(int64(months))).InexactFloat64()
	limit := avg * categoryCapFactor

	label := categoryLabel(top)
	return models.Goal{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("Reduce %s Spending", label),
		Description: fmt.Sprintf("Limit %s spending to $%.2f per month", label, limit),
		Type:        "category_limit",
		TargetValue: limit,
		Period:      "monthly",
		StartDate:   start,
		EndDate:     start.AddDays(monthlyGoalDays),
		Reasoning:   fmt.Sprintf("%s spending ($%.2f/month) is high. Reducing to $%.2f will improve financial health.", label, avg, limit),
		Evidence: []models.Evidence{
			{Metric: "current_category_spending", Value: avg, Explanation: fmt.Sprintf("Average monthly spending on %s", label)},
			{Metric: "recommended_cap", Value: limit, Explanation: "10% reduction target"},
		},
	}, true
}

func dailySpendingGoal(start models.Date, limit, avgDaily float64) models.Goal {
	return models.Goal{
		ID:          uuid.NewString(),
		Title:       "Daily Spending Cap",
		Description: fmt.Sprintf("Limit daily spending to $%.2f", limit),
		Type:        "spending_cap",
		TargetValue: limit,
		Period:      "daily",
		StartDate:   start,
		EndDate:     start.AddDays(dailyGoalDays),
		Reasoning:   fmt.Sprintf("Daily spending varies significantly. Capping at $%.2f (vs current avg $%.2f) will reduce volatility.", limit, avgDaily),
		Evidence: []models.Evidence{
			{Metric: "average_daily_spending", Value: avgDaily, Explanation: "Average daily spending"},
			{Metric: "recommended_cap", Value: limit, Explanation: "10% above average"},
		},
	}
}
