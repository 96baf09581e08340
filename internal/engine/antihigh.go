package engine

// AntiHighStatus is the outcome of one anti-high evaluation.
type AntiHighStatus string

const (
	AntiHighNotHighTier  AntiHighStatus = "not_high_tier"
	AntiHighInCooldown   AntiHighStatus = "in_cooldown"
	AntiHighNotTriggered AntiHighStatus = "not_triggered"
	AntiHighDowngraded   AntiHighStatus = "downgraded"
)

// AntiHighConfig tunes the downgrade of repeated high-tier wins.
type AntiHighConfig struct {
	StreakThreshold int     // consecutive highs before a downgrade fires
	ReductionFactor float64 // high weight is multiplied by this, floored at 1
	CooldownDraws   int     // draws to wait before the check re-arms
}

func DefaultAntiHighConfig() AntiHighConfig {
	return AntiHighConfig{StreakThreshold: 3, ReductionFactor: 0.3, CooldownDraws: 5}
}

// AntiHighInput describes the provisional outcome the downgrader inspects.
type AntiHighInput struct {
	RecentHighCount  int
	AntiHighCooldown int
	SelectedTier     Tier
	Weights          TierWeights
	AvailableTiers   []Tier
}

// AntiHighResult carries the final tier after a possible downgrade.
// CooldownSet is the cooldown to install, 0 when nothing fired.
type AntiHighResult struct {
	Status          AntiHighStatus
	FinalTier       Tier
	AdjustedWeights TierWeights
	CooldownSet     int
}

// HandleAntiHigh downgrades a high-tier win when the user has been winning
// high too often in a row. While the cooldown runs, nothing re-triggers:
// one correction must not turn into a string of penalties.
func HandleAntiHigh(in AntiHighInput, cfg AntiHighConfig) AntiHighResult {
	if cfg.StreakThreshold <= 0 {
		cfg = DefaultAntiHighConfig()
	}
	res := AntiHighResult{FinalTier: in.SelectedTier, AdjustedWeights: in.Weights}

	if in.SelectedTier != TierHigh {
		res.Status = AntiHighNotHighTier
		return res
	}
	if in.AntiHighCooldown > 0 {
		res.Status = AntiHighInCooldown
		return res
	}
	if in.RecentHighCount < cfg.StreakThreshold {
		res.Status = AntiHighNotTriggered
		return res
	}

	res.Status = AntiHighDowngraded
	res.CooldownSet = cfg.CooldownDraws
	res.FinalTier = nextLowerAvailable(TierHigh, in.AvailableTiers)

	adjusted := in.Weights.Clone()
	if w := adjusted[TierHigh]; w > 0 {
		nw := w * cfg.ReductionFactor
		if nw < 1 {
			nw = 1
		}
		adjusted[TierHigh] = nw
	}
	res.AdjustedWeights = adjusted
	return res
}

// nextLowerAvailable walks down from t until it lands on an available tier.
// Fallback terminates the walk; it is always a valid outcome.
func nextLowerAvailable(t Tier, available []Tier) Tier {
	open := make(map[Tier]bool, len(available))
	for _, a := range available {
		open[a] = true
	}
	for cur := t.NextLower(); ; cur = cur.NextLower() {
		if open[cur] || cur == TierFallback {
			return cur
		}
	}
}

// DecrementCooldown steps the cooldown counter once per draw, never below 0.
func DecrementCooldown(n int) int {
	if n <= 1 {
		return 0
	}
	return n - 1
}
