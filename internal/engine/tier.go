package engine

// Tier identifies a reward bucket. Fallback is the empty outcome: the user
// wins nothing and the campaign budget is untouched.
type Tier string

const (
	TierHigh     Tier = "high"
	TierMid      Tier = "mid"
	TierLow      Tier = "low"
	TierFallback Tier = "fallback"
)

// DrawOrder is the fixed iteration order for weighted draws and reports,
// most valuable first.
var DrawOrder = []Tier{TierHigh, TierMid, TierLow, TierFallback}

// Valid reports whether t is one of the four known buckets.
func (t Tier) Valid() bool {
	switch t {
	case TierHigh, TierMid, TierLow, TierFallback:
		return true
	}
	return false
}

// Empty reports whether t is the no-prize outcome.
func (t Tier) Empty() bool { return t == TierFallback }

// NextLower returns the next cheaper tier. Fallback maps to itself.
func (t Tier) NextLower() Tier {
	switch t {
	case TierHigh:
		return TierMid
	case TierMid:
		return TierLow
	default:
		return TierFallback
	}
}

// TierWeights maps each tier to a non-negative draw weight.
type TierWeights map[Tier]float64

// DefaultBaseWeights is the starting distribution before any adjustment.
func DefaultBaseWeights() TierWeights {
	return TierWeights{
		TierHigh:     5,
		TierMid:      15,
		TierLow:      30,
		TierFallback: 50,
	}
}

// Clone returns an independent copy.
func (w TierWeights) Clone() TierWeights {
	out := make(TierWeights, len(w))
	for t, v := range w {
		out[t] = v
	}
	return out
}

// Total sums all weights.
func (w TierWeights) Total() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Positive lists tiers carrying weight > 0, in draw order.
func (w TierWeights) Positive() []Tier {
	var out []Tier
	for _, t := range DrawOrder {
		if w[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// BudgetTier is the coarse classification of remaining campaign budget.
type BudgetTier string

const (
	BudgetB0 BudgetTier = "B0" // exhausted or invalid; fallback only
	BudgetB1 BudgetTier = "B1"
	BudgetB2 BudgetTier = "B2"
	BudgetB3 BudgetTier = "B3" // fully funded; all tiers open
)

// PressureTier is the coarse classification of spend pace vs time pace.
type PressureTier string

const (
	PressureP0 PressureTier = "P0" // spending slower than elapsed time allows
	PressureP1 PressureTier = "P1" // on pace
	PressureP2 PressureTier = "P2" // overspending pace; throttle high tiers
)

// ExperienceState tracks one user's streak counters within a campaign.
// Zero value is the state before the first draw.
type ExperienceState struct {
	EmptyStreak      int // consecutive empty outcomes
	RecentHighCount  int // consecutive high-tier wins
	AntiHighCooldown int // draws remaining before anti-high checks resume
}

// GlobalStats aggregates draw outcomes across the whole campaign population.
type GlobalStats struct {
	DrawCount  int64
	EmptyCount int64
}

// EmptyRate returns observed empties per draw, 0 when no draws recorded.
func (g GlobalStats) EmptyRate() float64 {
	if g.DrawCount <= 0 {
		return 0
	}
	return float64(g.EmptyCount) / float64(g.DrawCount)
}

// TierPrizeView is the per-tier catalog summary the smoothing mechanisms
// need: how many prizes are grantable and what the cheapest one costs.
type TierPrizeView struct {
	Count   int   // in-stock prizes defined for the tier
	MinCost int64 // cheapest in-stock prize cost in points
}
