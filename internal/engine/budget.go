package engine

import (
	"fmt"
	"math"
)

// BudgetThresholds are the inclusive lower bounds separating B1/B2/B3.
// Anything below Low (or not a usable number) is B0.
type BudgetThresholds struct {
	Low  float64
	Mid  float64
	High float64
}

func DefaultBudgetThresholds() BudgetThresholds {
	return BudgetThresholds{Low: 100, Mid: 500, High: 1000}
}

func (t BudgetThresholds) valid() bool {
	return t.Low > 0 && t.Mid > t.Low && t.High > t.Mid &&
		!math.IsNaN(t.Low) && !math.IsInf(t.High, 0)
}

// BudgetClass is the classification result. Degraded marks inputs that were
// not usable numbers and were resolved conservatively instead of rejected.
type BudgetClass struct {
	Tier     BudgetTier
	Degraded bool
	Note     string
}

// ClassifyBudget maps the remaining spendable budget to B0..B3. It never
// fails: NaN, negative and zero all land on B0, +Inf lands on B3. Callers
// holding an absent value pass NaN.
func ClassifyBudget(effectiveBudget float64, th BudgetThresholds) BudgetClass {
	if !th.valid() {
		th = DefaultBudgetThresholds()
	}
	if math.IsNaN(effectiveBudget) {
		return BudgetClass{Tier: BudgetB0, Degraded: true, Note: "budget is not a number"}
	}
	if math.IsInf(effectiveBudget, 1) {
		return BudgetClass{Tier: BudgetB3, Degraded: true, Note: "budget is +Inf"}
	}
	if effectiveBudget <= 0 {
		cls := BudgetClass{Tier: BudgetB0}
		if effectiveBudget < 0 {
			cls.Degraded = true
			cls.Note = fmt.Sprintf("negative budget %.2f", effectiveBudget)
		}
		return cls
	}
	switch {
	case effectiveBudget < th.Low:
		return BudgetClass{Tier: BudgetB0}
	case effectiveBudget < th.Mid:
		return BudgetClass{Tier: BudgetB1}
	case effectiveBudget < th.High:
		return BudgetClass{Tier: BudgetB2}
	default:
		return BudgetClass{Tier: BudgetB3}
	}
}
