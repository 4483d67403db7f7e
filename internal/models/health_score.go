package models

// Health sub-score names, in the fixed order used for explanations and
// recommendations.
const (
	SubScoreSavingsRate          = "savingsRate"
	SubScoreSpendingVolatility   = "spendingVolatility"
	SubScoreIncomeToExpenseRatio = "incomeToExpenseRatio"
	SubScoreBudgetAdherence      = "budgetAdherence"
	SubScoreAnomaly              = "anomalyScore"
)

// SubScoreOrder lists every health sub-score name in display order.
var SubScoreOrder = []string{
	SubScoreSavingsRate,
	SubScoreSpendingVolatility,
	SubScoreIncomeToExpenseRatio,
	SubScoreBudgetAdherence,
	SubScoreAnomaly,
}

// SubScore is one weighted component of the health score.
type SubScore struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// HealthScore is the composite financial-health result.
type HealthScore struct {
	OverallScore    float64             `json:"overallScore"`
	SubScores       map[string]SubScore `json:"subScores"`
	Explanation     string              `json:"explanation"`
	Metrics         map[string]float64  `json:"metrics"`
	Recommendations []string            `json:"recommendations"`
}
