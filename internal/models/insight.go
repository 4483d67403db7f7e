package models

// Priority ranks insights and goals for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Evidence is a single numeric or textual fact backing an insight or goal.
type Evidence struct {
	Metric      string      `json:"metric"`
	Value       interface{} `json:"value"`
	Explanation string      `json:"explanation"`
}

// Insight is an explainable observation derived from transaction history.
type Insight struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Evidence   []Evidence `json:"evidence"`
	Priority   Priority   `json:"priority"`
	Actionable bool       `json:"actionable"`
}

// Goal is a recommended financial target.
type Goal struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	TargetValue float64    `json:"targetValue"`
	Period      string     `json:"period"`
	StartDate   Date       `json:"startDate"`
	EndDate     Date       `json:"endDate"`
	Reasoning   string     `json:"reasoning"`
	Evidence    []Evidence `json:"evidence"`
}

// CategoryPrediction classifies a single transaction description.
type CategoryPrediction struct {
	Category     string  `json:"category"`
	NeedsVsWants string  `json:"needsVsWants"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning,omitempty"`
}
