package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Needs vs wants labels.
const (
	NeedsLabel   = "needs"
	WantsLabel   = "wants"
	UnknownLabel = "unknown"
)

const needsConfidenceThreshold = 0.6

var (
	// ExpenseCategories is the closed set of expense categories, in tie-break order.
	ExpenseCategories = []string{
		"Food & Dining", "Rent & Utilities", "Transportation", "Shopping",
		"Entertainment", "Healthcare", "Education", "Travel", "Bills & Fees",
		"Other Expense",
	}
	// IncomeCategories is the closed set of income categories, in tie-break order.
	IncomeCategories = []string{"Salary", "Freelance", "Investment", "Other Income"}

	needsCategories = map[string]bool{
		"Rent & Utilities": true,
		"Healthcare":       true,
		"Bills & Fees":     true,
		"Transportation":   true,
	}

	categoryKeywords = map[string][]string{
		"Food & Dining":    {"restaurant", "grocery", "food", "coffee", "lunch", "dinner", "cafe", "pizza", "burger"},
		"Rent & Utilities": {"rent", "electricity", "water", "gas", "utility", "apartment", "housing"},
		"Transportation":   {"gas", "uber", "taxi", "parking", "metro", "bus", "train", "flight"},
		"Shopping":         {"amazon", "store", "purchase", "buy", "shopping", "mall", "retail"},
		"Entertainment":    {"movie", "concert", "netflix", "spotify", "game", "entertainment"},
		"Healthcare":       {"doctor", "pharmacy", "hospital", "medical", "health", "medicine"},
		"Education":        {"school", "tuition", "course", "book", "education", "university"},
		"Travel":           {"hotel", "vacation", "trip", "travel", "flight", "airline"},
		"Bills & Fees":     {"bill", "fee", "subscription", "service", "charge"},
		"Salary":           {"salary", "payroll", "wage", "income", "paycheck"},
		"Freelance":        {"freelance", "contract", "consulting", "project"},
		"Investment":       {"investment", "dividend", "return", "stock", "bond"},
	}

	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)
)

// CategoryPredictor classifies a transaction description with keyword patterns
// restricted to the category set of the transaction's type.
type CategoryPredictor struct {
	logger *logrus.Logger
}

// NewCategoryPredictor creates a CategoryPredictor.
func NewCategoryPredictor(logger *logrus.Logger) *CategoryPredictor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CategoryPredictor{logger: logger}
}

// Predict returns the most likely category and a needs/wants label.
//
// Category confidence is the share of matched keywords that belong to the
// chosen category. Without any match the "Other" category of the type is
// returned with a uniform confidence over the candidate set.
func (p *CategoryPredictor) Predict(description string, amount float64, txType models.TransactionType) models.CategoryPrediction {
	candidates, fallback := ExpenseCategories, "Other Expense"
	if txType == models.TransactionTypeIncome {
		candidates, fallback = IncomeCategories, "Other Income"
	}

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(cleanDescription(description)) {
		tokens[tok] = true
	}

	counts := make(map[string]int, len(candidates))
	var matched, needsMatched int
	for _, category := range candidates {
		for _, kw := range categoryKeywords[category] {
			if tokens[kw] {
				counts[category]++
				matched++
				if needsCategories[category] {
					needsMatched++
				}
			}
		}
	}

	category := fallback
	categoryConfidence := 1 / float64(len(candidates))
	if matched > 0 {
		best := 0
		for _, c := range candidates {
			if counts[c] > best {
				category, best = c, counts[c]
			}
		}
		categoryConfidence = float64(best) / float64(matched)
	}

	needsVsWants := UnknownLabel
	confidence := categoryConfidence
	if txType != models.TransactionTypeIncome {
		needsConfidence := 0.5
		label := UnknownLabel
		if matched > 0 {
			share := float64(needsMatched) / float64(matched)
			label, needsConfidence = NeedsLabel, share
			if share < 0.5 {
				label, needsConfidence = WantsLabel, 1-share
			}
		}
		if needsConfidence > needsConfidenceThreshold {
			needsVsWants = label
		}
		confidence = (categoryConfidence + needsConfidence) / 2
	}

	p.logger.WithFields(logrus.Fields{
		"category":   category,
		"matched":    matched,
		"confidence": confidence,
		"amount":     amount,
	}).Debug("Category predicted")

	return models.CategoryPrediction{
		Category:     category,
		NeedsVsWants: needsVsWants,
		Confidence:   roundTo(confidence, 4),
		Reasoning:    categoryReasoning(description, category, needsVsWants, confidence),
	}
}

func cleanDescription(description string) string {
	text := nonAlphanumeric.ReplaceAllString(strings.ToLower(description), "")
	return strings.Join(strings.Fields(text), " ")
}

func confidenceLevel(confidence float64) string {
	switch {
	case confidence > 0.7:
		return "high"
	case confidence > 0.5:
		return "medium"
	default:
		return "low"
	}
}

func categoryReasoning(description, category, needsVsWants string, confidence float64) string {
	reasoning := fmt.Sprintf("Predicted category '%s' with %s confidence (%.1f%%) based on description: '%s'.",
		category, confidenceLevel(confidence), confidence*100, description)
	if needsVsWants != UnknownLabel {
		reasoning += fmt.Sprintf(" Classified as '%s' based on category patterns.", needsVsWants)
	}
	return reasoning
}
