package engine

import (
	"fmt"
	"math"
)

// MatrixInput feeds one weight-matrix evaluation.
type MatrixInput struct {
	BudgetTier   BudgetTier
	PressureTier PressureTier
	BaseWeights  TierWeights // nil means DefaultBaseWeights
}

// MatrixResult is the gated and pressure-adjusted weight set.
type MatrixResult struct {
	AvailableTiers []Tier
	FinalWeights   TierWeights
	Multipliers    map[Tier]float64
	Degraded       bool
	Notes          []string
}

// budgetGate lists the tiers each budget tier leaves open. Budget gating
// dominates pressure adjustment: a closed tier stays at weight 0 no matter
// what the pressure multipliers say.
var budgetGate = map[BudgetTier][]Tier{
	BudgetB0: {TierFallback},
	BudgetB1: {TierMid, TierLow, TierFallback},
	BudgetB2: {TierMid, TierLow, TierFallback},
	BudgetB3: {TierHigh, TierMid, TierLow, TierFallback},
}

// CalculateMatrix gates the base weights by budget tier, applies the
// pressure multipliers to surviving tiers and guarantees at least one
// positive weight. Unknown tier codes degrade (B0 behavior for budget, P1
// for pressure) instead of failing the draw.
func CalculateMatrix(in MatrixInput) MatrixResult {
	res := MatrixResult{
		FinalWeights: make(TierWeights, len(DrawOrder)),
		Multipliers:  make(map[Tier]float64, len(DrawOrder)),
	}

	gate, ok := budgetGate[in.BudgetTier]
	if !ok {
		gate = budgetGate[BudgetB0]
		res.Degraded = true
		res.Notes = append(res.Notes, fmt.Sprintf("unknown budget tier %q, treated as B0", in.BudgetTier))
	}
	open := make(map[Tier]bool, len(gate))
	for _, t := range gate {
		open[t] = true
	}

	pt := in.PressureTier
	if _, ok := pressureAdjust[pt]; !ok {
		res.Degraded = true
		res.Notes = append(res.Notes, fmt.Sprintf("unknown pressure tier %q, treated as P1", pt))
		pt = PressureP1
	}
	adj := WeightAdjustment(pt)

	base := in.BaseWeights
	if len(base) == 0 {
		base = DefaultBaseWeights()
	}

	for _, t := range DrawOrder {
		w := base[t]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			res.Degraded = true
			res.Notes = append(res.Notes, fmt.Sprintf("invalid base weight for %s, treated as 0", t))
			w = 0
		}
		if !open[t] {
			res.FinalWeights[t] = 0
			res.Multipliers[t] = 0
			continue
		}
		res.AvailableTiers = append(res.AvailableTiers, t)
		res.FinalWeights[t] = w * adj[t]
		res.Multipliers[t] = adj[t]
	}

	// every combination must leave something drawable; fallback is open
	// under every budget gate
	if res.FinalWeights.Total() <= 0 {
		res.FinalWeights[TierFallback] = 1
		res.Multipliers[TierFallback] = 1
		res.Notes = append(res.Notes, "all weights zero, forced fallback")
	}
	return res
}
