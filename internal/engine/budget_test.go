package engine

import (
	"math"
	"testing"
)

func TestClassifyBudgetBoundaries(t *testing.T) {
	th := DefaultBudgetThresholds()
	cases := []struct {
		budget float64
		want   BudgetTier
	}{
		{-50, BudgetB0},
		{0, BudgetB0},
		{99, BudgetB0},
		{100, BudgetB1},
		{499, BudgetB1},
		{500, BudgetB2},
		{999, BudgetB2},
		{1000, BudgetB3},
		{250000, BudgetB3},
	}
	for _, c := range cases {
		got := ClassifyBudget(c.budget, th)
		if got.Tier != c.want {
			t.Fatalf("budget=%v: got %s want %s", c.budget, got.Tier, c.want)
		}
	}
}

func TestClassifyBudgetDegradations(t *testing.T) {
	th := DefaultBudgetThresholds()

	got := ClassifyBudget(math.NaN(), th)
	if got.Tier != BudgetB0 || !got.Degraded {
		t.Fatalf("NaN should degrade to B0; got %+v", got)
	}
	got = ClassifyBudget(math.Inf(-1), th)
	if got.Tier != BudgetB0 || !got.Degraded {
		t.Fatalf("-Inf should degrade to B0; got %+v", got)
	}
	got = ClassifyBudget(math.Inf(1), th)
	if got.Tier != BudgetB3 || !got.Degraded {
		t.Fatalf("+Inf should classify as B3 with a note; got %+v", got)
	}
	got = ClassifyBudget(-1, th)
	if got.Tier != BudgetB0 || !got.Degraded || got.Note == "" {
		t.Fatalf("negative budget should carry a note; got %+v", got)
	}
	got = ClassifyBudget(0, th)
	if got.Tier != BudgetB0 || got.Degraded {
		t.Fatalf("zero budget is a plain B0, not a degradation; got %+v", got)
	}
}

func TestClassifyBudgetBadThresholds(t *testing.T) {
	// unusable thresholds fall back to the defaults instead of failing
	got := ClassifyBudget(750, BudgetThresholds{Low: 500, Mid: 100, High: 10})
	if got.Tier != BudgetB2 {
		t.Fatalf("expected default thresholds to apply; got %s", got.Tier)
	}
}
