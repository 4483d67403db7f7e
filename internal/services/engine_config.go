package services

import (
	"errors"
	"fmt"
)

// ModelVersion is the version tag reported in forecast metadata when none is configured.
const ModelVersion = "v1.0"

// Default engine tunables.
const (
	DefaultMinTransactions = 10
	DefaultLookbackDays    = 60
	DefaultHorizonDays     = 30
	DefaultContamination   = 0.1
	DefaultEstimators      = 100
	DefaultZScoreThreshold = 2.5
	// DefaultRandomSeed seeds the isolation forest when the caller does not pin one.
	DefaultRandomSeed int64 = 42
)

// EngineConfig is the immutable configuration shared by the signal engines.
// It is built once at startup and never mutated afterwards.
type EngineConfig struct {
	ModelVersion           string         `json:"model_version"`
	MinTransactionsAnomaly int            `json:"min_transactions_anomaly"`
	MinTransactionsHealth  int            `json:"min_transactions_health"`
	LookbackDays           int            `json:"lookback_days"`
	ForecastHorizons       map[string]int `json:"forecast_horizons"`
	DefaultHorizon         int            `json:"default_horizon"`
	Contamination          float64        `json:"contamination"`
	Estimators             int            `json:"n_estimators"`
	RandomSeed             int64          `json:"random_seed"`
	ZScoreThreshold        float64        `json:"z_score_threshold"`
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ModelVersion:           ModelVersion,
		MinTransactionsAnomaly: DefaultMinTransactions,
		MinTransactionsHealth:  DefaultMinTransactions,
		LookbackDays:           DefaultLookbackDays,
		ForecastHorizons: map[string]int{
			"7day":  7,
			"14day": 14,
			"30day": 30,
		},
		DefaultHorizon:  DefaultHorizonDays,
		Contamination:   DefaultContamination,
		Estimators:      DefaultEstimators,
		RandomSeed:      DefaultRandomSeed,
		ZScoreThreshold: DefaultZScoreThreshold,
	}
}

// Validate checks that every tunable is usable.
func (c EngineConfig) Validate() error {
	var errs []error
	if c.MinTransactionsAnomaly < 1 {
		errs = append(errs, fmt.Errorf("min_transactions_anomaly must be at least 1, got %d", c.MinTransactionsAnomaly))
	}
	if c.MinTransactionsHealth < 1 {
		errs = append(errs, fmt.Errorf("min_transactions_health must be at least 1, got %d", c.MinTransactionsHealth))
	}
	if c.LookbackDays < 1 {
		errs = append(errs, fmt.Errorf("lookback_days must be at least 1, got %d", c.LookbackDays))
	}
	if c.DefaultHorizon < 1 {
		errs = append(errs, fmt.Errorf("default_horizon must be at least 1, got %d", c.DefaultHorizon))
	}
	for key, days := range c.ForecastHorizons {
		if days < 1 {
			errs = append(errs, fmt.Errorf("forecast horizon %q must be at least 1 day, got %d", key, days))
		}
	}
	if c.Contamination <= 0 || c.Contamination > 0.5 {
		errs = append(errs, fmt.Errorf("contamination must be in (0, 0.5], got %g", c.Contamination))
	}
	if c.Estimators < 1 {
		errs = append(errs, fmt.Errorf("n_estimators must be at least 1, got %d", c.Estimators))
	}
	if c.ZScoreThreshold <= 0 {
		errs = append(errs, fmt.Errorf("z_score_threshold must be positive, got %g", c.ZScoreThreshold))
	}
	return errors.Join(errs...)
}

// HorizonDays resolves a forecast type key such as "7day" to a number of days,
// falling back to the default horizon for unknown keys.
func (c EngineConfig) HorizonDays(key string) int {
	if days, ok := c.ForecastHorizons[key]; ok && days > 0 {
		return days
	}
	if c.DefaultHorizon > 0 {
		return c.DefaultHorizon
	}
	return DefaultHorizonDays
}
