package models

// Severity buckets an anomaly by the magnitude of its score.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskLevel is the three-step scale shared by anomaly and forecast results.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AnomalyRecord flags one transaction of the input set.
type AnomalyRecord struct {
	TransactionIndex int      `json:"transactionIndex"`
	AnomalyScore     float64  `json:"anomalyScore"`
	Reason           string   `json:"reason"`
	Severity         Severity `json:"severity"`
}

// AnomalyResult is the output of anomaly detection over a transaction set.
type AnomalyResult struct {
	Anomalies      []AnomalyRecord `json:"anomalies"`
	RiskLevel      RiskLevel       `json:"riskLevel"`
	TotalAnomalies int             `json:"totalAnomalies"`
}
