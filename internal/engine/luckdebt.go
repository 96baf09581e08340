package engine

import "math"

// DebtLevel classifies how far the population empty rate has drifted above
// the expected baseline.
type DebtLevel string

const (
	DebtNone   DebtLevel = "none"
	DebtLow    DebtLevel = "low"
	DebtMedium DebtLevel = "medium"
	DebtHigh   DebtLevel = "high"
)

// LuckDebtConfig tunes the population-level compensator. Deviation bands
// are upper bounds: deviation <= NoneMax maps to none, and so on; above
// MediumMax is high.
type LuckDebtConfig struct {
	MinSampleSize     int64
	ExpectedEmptyRate float64
	NoneMax           float64
	LowMax            float64
	MediumMax         float64
	LowMult           float64
	MediumMult        float64
	HighMult          float64
}

func DefaultLuckDebtConfig() LuckDebtConfig {
	return LuckDebtConfig{
		MinSampleSize:     10,
		ExpectedEmptyRate: 0.30,
		NoneMax:           0.05,
		LowMax:            0.10,
		MediumMax:         0.15,
		LowMult:           1.05,
		MediumMult:        1.10,
		HighMult:          1.25,
	}
}

// LuckDebtResult reports the classification. Multiplier is always >= 1:
// the mechanism compensates bad luck, it never penalizes good luck.
type LuckDebtResult struct {
	Level      DebtLevel
	Multiplier float64
	Deviation  float64
	Sampled    bool // enough population data to judge
}

// EvaluateLuckDebt classifies the campaign-wide empty-rate deviation. With
// the feature disabled, stats missing, or fewer than MinSampleSize draws
// recorded it stays out of the way: none / 1.0.
func EvaluateLuckDebt(stats *GlobalStats, enabled bool, cfg LuckDebtConfig) LuckDebtResult {
	none := LuckDebtResult{Level: DebtNone, Multiplier: 1.0}
	if !enabled || stats == nil {
		return none
	}
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = DefaultLuckDebtConfig().MinSampleSize
	}
	if stats.DrawCount < cfg.MinSampleSize {
		return none
	}

	dev := stats.EmptyRate() - cfg.ExpectedEmptyRate
	if math.IsNaN(dev) {
		return none
	}
	res := LuckDebtResult{Deviation: dev, Sampled: true}
	switch {
	case dev <= cfg.NoneMax:
		res.Level = DebtNone
		res.Multiplier = 1.0
	case dev <= cfg.LowMax:
		res.Level = DebtLow
		res.Multiplier = cfg.LowMult
	case dev <= cfg.MediumMax:
		res.Level = DebtMedium
		res.Multiplier = cfg.MediumMult
	default:
		res.Level = DebtHigh
		res.Multiplier = cfg.HighMult
	}
	if res.Multiplier < 1 {
		res.Multiplier = 1
	}
	return res
}
