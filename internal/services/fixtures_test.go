package services

import (
	"io"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/sirupsen/logrus"
)

var fixtureStart = models.MustParseDate("2024-01-01")

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func expense(amount float64, day int, category string) models.Transaction {
	return models.Transaction{
		Amount:   amount,
		Date:     fixtureStart.AddDays(day),
		Type:     models.TransactionTypeExpense,
		Category: category,
	}
}

func income(amount float64, day int, category string) models.Transaction {
	return models.Transaction{
		Amount:   amount,
		Date:     fixtureStart.AddDays(day),
		Type:     models.TransactionTypeIncome,
		Category: category,
	}
}

// spikeExpenses returns n daily expenses of base with a single spike at spikeIdx.
func spikeExpenses(n, spikeIdx int, base, spike float64) []models.Transaction {
	txs := make([]models.Transaction, n)
	for i := range txs {
		amount := base
		if i == spikeIdx {
			amount = spike
		}
		txs[i] = expense(amount, i, "Food & Dining")
	}
	return txs
}

// alternatingCashFlow returns one transaction per day, +100 income on even days
// and -80 expense on odd days.
func alternatingCashFlow(days int) []models.Transaction {
	txs := make([]models.Transaction, days)
	for i := range txs {
		if i%2 == 0 {
			txs[i] = income(100, i, "Salary")
		} else {
			txs[i] = expense(80, i, "Shopping")
		}
	}
	return txs
}
