package models

// ForecastPoint is the prediction for a single future day.
type ForecastPoint struct {
	Date            Date    `json:"date"`
	PredictedAmount float64 `json:"predictedAmount"`
	LowerBound      float64 `json:"lowerBound"`
	UpperBound      float64 `json:"upperBound"`
	Confidence      float64 `json:"confidence"`
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// ForecastMetadata records how a forecast was produced.
type ForecastMetadata struct {
	ModelVersion      string    `json:"modelVersion"`
	TrainingDataRange DateRange `json:"trainingDataRange"`
	FeaturesUsed      []string  `json:"featuresUsed"`
}

// ForecastResult is the output of a cash-flow forecast.
type ForecastResult struct {
	Predictions   []ForecastPoint  `json:"predictions"`
	RiskIndicator RiskLevel        `json:"riskIndicator"`
	RiskScore     float64          `json:"riskScore"`
	Metadata      ForecastMetadata `json:"metadata"`
}
