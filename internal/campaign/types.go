// Package campaign loads, merges and resolves per-campaign parameter files.
// A shared default.yaml is overlaid by campaigns/<id>.yaml; the overlay wins
// wherever it sets a value.
package campaign

import (
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/prize"
)

// RawParams mirrors the campaign YAML schema. Pointer fields distinguish
// "absent" from an explicit zero so overlays override only what they set.
type RawParams struct {
	Name      string        `yaml:"name,omitempty"`
	Weights   *WeightsCfg   `yaml:"weights,omitempty"`
	Budget    *BudgetCfg    `yaml:"budget,omitempty"`
	Pity      *PityCfg      `yaml:"pity,omitempty"`
	LuckDebt  *LuckDebtCfg  `yaml:"luck_debt,omitempty"`
	AntiEmpty *AntiEmptyCfg `yaml:"anti_empty,omitempty"`
	AntiHigh  *AntiHighCfg  `yaml:"anti_high,omitempty"`
	Window    *WindowCfg    `yaml:"window,omitempty"`
	Cost      *CostCfg      `yaml:"cost,omitempty"`
	Prizes    []prize.Prize `yaml:"prizes,omitempty"`
	Notes     string        `yaml:"notes,omitempty"`
}

// WeightsCfg overrides the base tier weights.
type WeightsCfg struct {
	High     *float64 `yaml:"high,omitempty"`
	Mid      *float64 `yaml:"mid,omitempty"`
	Low      *float64 `yaml:"low,omitempty"`
	Fallback *float64 `yaml:"fallback,omitempty"`
}

// BudgetCfg overrides the inclusive budget tier thresholds.
type BudgetCfg struct {
	Low  *float64 `yaml:"low,omitempty"`
	Mid  *float64 `yaml:"mid,omitempty"`
	High *float64 `yaml:"high,omitempty"`
}

// PityCfg overrides the pity ladder. A non-empty soft list replaces the
// whole ladder rather than merging step by step.
type PityCfg struct {
	Soft []SoftStep `yaml:"soft,omitempty"`
	Hard *int       `yaml:"hard,omitempty"`
}

// SoftStep is one soft pity threshold.
type SoftStep struct {
	Streak     *int     `yaml:"streak"`
	Multiplier *float64 `yaml:"multiplier"`
	Label      string   `yaml:"label,omitempty"`
}

// LuckDebtCfg overrides the population compensator tuning.
type LuckDebtCfg struct {
	MinSampleSize     *int64   `yaml:"min_sample_size,omitempty"`
	ExpectedEmptyRate *float64 `yaml:"expected_empty_rate,omitempty"`
	NoneMax           *float64 `yaml:"none_max,omitempty"`
	LowMax            *float64 `yaml:"low_max,omitempty"`
	MediumMax         *float64 `yaml:"medium_max,omitempty"`
	LowMult           *float64 `yaml:"low_mult,omitempty"`
	MediumMult        *float64 `yaml:"medium_mult,omitempty"`
	HighMult          *float64 `yaml:"high_mult,omitempty"`
}

// AntiEmptyCfg overrides the empty-streak forcer.
type AntiEmptyCfg struct {
	Threshold *int `yaml:"threshold,omitempty"`
}

// AntiHighCfg overrides the repeated-win downgrader.
type AntiHighCfg struct {
	Streak    *int     `yaml:"streak,omitempty"`
	Reduction *float64 `yaml:"reduction,omitempty"`
	Cooldown  *int     `yaml:"cooldown,omitempty"`
}

// WindowCfg is the campaign activity window, RFC3339 timestamps.
type WindowCfg struct {
	Start *time.Time `yaml:"start,omitempty"`
	End   *time.Time `yaml:"end,omitempty"`
}

// CostCfg overrides the draw pricing.
type CostCfg struct {
	PointsPerDraw *int64 `yaml:"points_per_draw,omitempty"`
	BundleSize    *int   `yaml:"bundle_size,omitempty"`
	BundlePoints  *int64 `yaml:"bundle_points,omitempty"`
}

// Params is the resolved runtime view of one campaign's configuration.
// Start/End stay zero when the campaign has no window.
type Params struct {
	ID      string
	Name    string
	Engine  engine.EngineConfig
	Catalog prize.Catalog
	Cost    prize.CostModel
	Start   time.Time
	End     time.Time
}
