package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/irfndi/finsight-ml-go/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	highSeverityZScore    = 3.5
	defaultAnomalyScore   = 1.0
	highRiskAnomalyRate   = 0.15
	mediumRiskAnomalyRate = 0.05
	fallbackAnomalyReason = "Statistical anomaly detected"
)

// AnomalyDetector flags unusual transactions by combining an isolation forest
// over (amount, days since start, category) with a z-score test on amounts.
type AnomalyDetector struct {
	config    EngineConfig
	extractor *FeatureExtractor
	logger    *logrus.Logger
}

// NewAnomalyDetector creates an AnomalyDetector.
func NewAnomalyDetector(config EngineConfig, logger *logrus.Logger) *AnomalyDetector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AnomalyDetector{
		config:    config,
		extractor: NewFeatureExtractor(),
		logger:    logger,
	}
}

// Detect runs both detectors with the configured seed.
func (d *AnomalyDetector) Detect(transactions []models.Transaction) models.AnomalyResult {
	return d.DetectWithSeed(transactions, d.config.RandomSeed)
}

// DetectWithSeed runs both detectors, seeding the isolation forest with seed.
// Inputs smaller than the configured minimum produce an empty low-risk result.
func (d *AnomalyDetector) DetectWithSeed(transactions []models.Transaction, seed int64) models.AnomalyResult {
	if len(transactions) < d.config.MinTransactionsAnomaly {
		return models.AnomalyResult{
			Anomalies: []models.AnomalyRecord{},
			RiskLevel: models.RiskLow,
		}
	}

	features := d.extractor.Extract(transactions)
	points := make([][]float64, len(features.Vectors))
	for i, v := range features.Vectors {
		points[i] = v.Values()
	}

	forest := NewIsolationForest(IsolationForestConfig{
		Estimators:    d.config.Estimators,
		Contamination: d.config.Contamination,
		MinSamples:    d.config.MinTransactionsAnomaly,
		Seed:          seed,
	})
	var forestFlagged []int
	if result, err := forest.FitPredict(points); err != nil {
		d.logger.WithError(err).WithField("transactions", len(transactions)).
			Warn("Isolation forest skipped")
	} else {
		forestFlagged = result.Flagged
	}

	zscores := ZScoreOutliers(d.extractor.Amounts(transactions), d.config.ZScoreThreshold)

	flagged := make(map[int]struct{}, len(forestFlagged)+len(zscores.Indices))
	for _, idx := range forestFlagged {
		flagged[idx] = struct{}{}
	}
	for _, idx := range zscores.Indices {
		flagged[idx] = struct{}{}
	}

	indices := make([]int, 0, len(flagged))
	for idx := range flagged {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	anomalies := make([]models.AnomalyRecord, 0, len(indices))
	for _, idx := range indices {
		score := zscores.Score(idx, defaultAnomalyScore)
		anomalies = append(anomalies, models.AnomalyRecord{
			TransactionIndex: idx,
			AnomalyScore:     roundTo(score, 2),
			Reason:           d.reason(transactions[idx], score),
			Severity:         d.severity(score),
		})
	}

	d.logger.WithFields(logrus.Fields{
		"transactions":   len(transactions),
		"forest_flagged": len(forestFlagged),
		"zscore_flagged": len(zscores.Indices),
		"anomalies":      len(anomalies),
	}).Debug("Anomaly detection completed")

	return models.AnomalyResult{
		Anomalies:      anomalies,
		RiskLevel:      RiskLevelForRate(len(anomalies), len(transactions)),
		TotalAnomalies: len(anomalies),
	}
}

func (d *AnomalyDetector) severity(score float64) models.Severity {
	switch {
	case score > highSeverityZScore:
		return models.SeverityHigh
	case score > d.config.ZScoreThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func (d *AnomalyDetector) reason(tx models.Transaction, score float64) string {
	var parts []string
	if score > d.config.ZScoreThreshold {
		parts = append(parts, fmt.Sprintf("Unusually high amount ($%.2f)", tx.Amount))
	}
	if tx.Category != "" {
		parts = append(parts, fmt.Sprintf("Transaction in category: %s", tx.Category))
	}
	if len(parts) == 0 {
		return fallbackAnomalyReason
	}
	return strings.Join(parts, ". ")
}

// RiskLevelForRate buckets the share of anomalous transactions. Both
// boundaries are exclusive: exactly 5% is low and exactly 15% is medium.
func RiskLevelForRate(anomalies, total int) models.RiskLevel {
	if total <= 0 {
		return models.RiskLow
	}
	rate := float64(anomalies) / float64(total)
	switch {
	case rate > highRiskAnomalyRate:
		return models.RiskHigh
	case rate > mediumRiskAnomalyRate:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
