package campaign

import (
	"strings"
	"testing"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/prize"
)

func fp(v float64) *float64 { return &v }
func np(v int) *int         { return &v }
func lp(v int64) *int64     { return &v }

func TestValidateAcceptsEmpty(t *testing.T) {
	if err := (RawParams{}).Validate(); err != nil {
		t.Fatalf("empty params rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  RawParams
		want string
	}{
		{"negative weight", RawParams{Weights: &WeightsCfg{High: fp(-1)}}, "weights.high"},
		{"misordered budget", RawParams{Budget: &BudgetCfg{Low: fp(500), Mid: fp(100)}}, "budget.mid must be > budget.low"},
		{"incomplete pity step", RawParams{Pity: &PityCfg{Soft: []SoftStep{{Streak: np(3)}}}}, "pity.soft[0] needs streak and multiplier"},
		{"soft at hard", RawParams{Pity: &PityCfg{Soft: []SoftStep{{Streak: np(12), Multiplier: fp(1.2)}}, Hard: np(10)}}, "must be < pity.hard"},
		{"empty rate out of range", RawParams{LuckDebt: &LuckDebtCfg{ExpectedEmptyRate: fp(1.5)}}, "expected_empty_rate"},
		{"zero reduction", RawParams{AntiHigh: &AntiHighCfg{Reduction: fp(0)}}, "anti_high.reduction"},
		{"zero draw cost", RawParams{Cost: &CostCfg{PointsPerDraw: lp(0)}}, "points_per_draw"},
		{"bad prize", RawParams{Prizes: []prize.Prize{{ID: "x", Tier: engine.TierLow, Cost: 0, Weight: 1}}}, "catalog validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.raw.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	raw := RawParams{Window: &WindowCfg{Start: &start, End: &end}}
	if err := raw.Validate(); err == nil || !strings.Contains(err.Error(), "window.end") {
		t.Errorf("inverted window not reported: %v", err)
	}
}

func TestResolveDefaults(t *testing.T) {
	p, err := (RawParams{}).Resolve()
	if err != nil {
		t.Fatal(err)
	}

	if p.Engine.Budget != engine.DefaultBudgetThresholds() {
		t.Errorf("budget thresholds = %+v", p.Engine.Budget)
	}
	if p.Engine.Pity.HardStreak != 10 || len(p.Engine.Pity.Soft) != 3 {
		t.Errorf("pity = %+v", p.Engine.Pity)
	}
	if p.Engine.AntiEmptyThreshold != 8 {
		t.Errorf("anti empty threshold = %d", p.Engine.AntiEmptyThreshold)
	}
	if p.Cost != prize.DefaultCostModel() {
		t.Errorf("cost model = %+v", p.Cost)
	}
	if !p.Start.IsZero() || !p.End.IsZero() {
		t.Error("window should stay zero when unset")
	}
}

func TestResolveOverrides(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	raw := RawParams{
		Name:    "Autumn",
		Weights: &WeightsCfg{High: fp(2), Fallback: fp(60)},
		Budget:  &BudgetCfg{Low: fp(200), Mid: fp(800), High: fp(2000)},
		Pity: &PityCfg{
			Soft: []SoftStep{{Streak: np(4), Multiplier: fp(1.3), Label: "ramp"}},
			Hard: np(9),
		},
		LuckDebt:  &LuckDebtCfg{ExpectedEmptyRate: fp(0.4), HighMult: fp(1.5)},
		AntiEmpty: &AntiEmptyCfg{Threshold: np(6)},
		AntiHigh:  &AntiHighCfg{Streak: np(2), Reduction: fp(0.5), Cooldown: np(3)},
		Window:    &WindowCfg{Start: &start, End: &end},
		Cost:      &CostCfg{PointsPerDraw: lp(200), BundleSize: np(5), BundlePoints: lp(900)},
	}

	p, err := raw.Resolve()
	if err != nil {
		t.Fatal(err)
	}

	if p.Engine.BaseWeights[engine.TierHigh] != 2 || p.Engine.BaseWeights[engine.TierFallback] != 60 {
		t.Errorf("weights = %v", p.Engine.BaseWeights)
	}
	if p.Engine.BaseWeights[engine.TierMid] != 15 {
		t.Error("untouched weight should keep its default")
	}
	if p.Engine.Budget.High != 2000 {
		t.Errorf("budget.high = %v", p.Engine.Budget.High)
	}
	if len(p.Engine.Pity.Soft) != 1 || p.Engine.Pity.Soft[0].Description != "ramp" {
		t.Errorf("pity ladder = %+v", p.Engine.Pity.Soft)
	}
	if p.Engine.Pity.HardStreak != 9 {
		t.Errorf("hard streak = %d", p.Engine.Pity.HardStreak)
	}
	if p.Engine.LuckDebt.ExpectedEmptyRate != 0.4 || p.Engine.LuckDebt.HighMult != 1.5 {
		t.Errorf("luck debt = %+v", p.Engine.LuckDebt)
	}
	if p.Engine.LuckDebt.LowMult != 1.05 {
		t.Error("untouched luck debt field should keep its default")
	}
	if p.Engine.AntiEmptyThreshold != 6 {
		t.Errorf("anti empty = %d", p.Engine.AntiEmptyThreshold)
	}
	if p.Engine.AntiHigh != (engine.AntiHighConfig{StreakThreshold: 2, ReductionFactor: 0.5, CooldownDraws: 3}) {
		t.Errorf("anti high = %+v", p.Engine.AntiHigh)
	}
	if p.Cost != (prize.CostModel{PointsPerDraw: 200, BundleSize: 5, BundlePoints: 900}) {
		t.Errorf("cost = %+v", p.Cost)
	}
	if !p.Start.Equal(start) || !p.End.Equal(end) {
		t.Errorf("window = %v..%v", p.Start, p.End)
	}
}

func TestResolveRelationalErrors(t *testing.T) {
	// low raised above the default mid: each field is fine on its own, the
	// trio only breaks after merging with defaults
	if _, err := (RawParams{Budget: &BudgetCfg{Low: fp(600)}}).Resolve(); err == nil ||
		!strings.Contains(err.Error(), "ascending") {
		t.Errorf("partial budget override must fail resolve: %v", err)
	}

	if _, err := (RawParams{LuckDebt: &LuckDebtCfg{LowMax: fp(0.03)}}).Resolve(); err == nil ||
		!strings.Contains(err.Error(), "bands must be ascending") {
		t.Errorf("band inversion must fail resolve: %v", err)
	}

	zero := RawParams{Weights: &WeightsCfg{High: fp(0), Mid: fp(0), Low: fp(0), Fallback: fp(0)}}
	if _, err := zero.Resolve(); err == nil ||
		!strings.Contains(err.Error(), "at least one tier positive") {
		t.Errorf("all-zero weights must fail resolve: %v", err)
	}
}
