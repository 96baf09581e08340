package engine

// AntiEmptyStatus is the outcome of one anti-empty evaluation.
type AntiEmptyStatus string

const (
	AntiEmptyNotTriggered       AntiEmptyStatus = "not_triggered"
	AntiEmptyAlreadyNonEmpty    AntiEmptyStatus = "already_non_empty"
	AntiEmptyForced             AntiEmptyStatus = "forced"
	AntiEmptyBudgetInsufficient AntiEmptyStatus = "budget_insufficient"
)

// DefaultAntiEmptyThreshold is the empty-streak length that arms forcing.
const DefaultAntiEmptyThreshold = 8

// AntiEmptyInput describes the provisional outcome the forcer inspects.
// It runs after the draw, as the mechanism of last resort.
type AntiEmptyInput struct {
	EmptyStreak     int
	SelectedTier    Tier
	AvailableTiers  []Tier
	EffectiveBudget float64
	Prizes          map[Tier]TierPrizeView
	ForceThreshold  int // <=0 means DefaultAntiEmptyThreshold
}

// AntiEmptyResult carries the final tier after forcing. Cost is the minimum
// prize cost of the forced tier, 0 unless Status is forced.
type AntiEmptyResult struct {
	Status    AntiEmptyStatus
	FinalTier Tier
	Cost      int64
}

// HandleAntiEmpty forces a non-empty outcome once the streak reaches the
// threshold, picking the cheapest available tier that has a grantable prize
// within budget. When nothing is affordable the guarantee yields to the
// budget: the outcome stays empty and the status says so.
func HandleAntiEmpty(in AntiEmptyInput) AntiEmptyResult {
	threshold := in.ForceThreshold
	if threshold <= 0 {
		threshold = DefaultAntiEmptyThreshold
	}
	if in.EmptyStreak < threshold {
		return AntiEmptyResult{Status: AntiEmptyNotTriggered, FinalTier: in.SelectedTier}
	}
	if !in.SelectedTier.Empty() {
		return AntiEmptyResult{Status: AntiEmptyAlreadyNonEmpty, FinalTier: in.SelectedTier}
	}
	t, cost, ok := cheapestAffordable(in.AvailableTiers, in.EffectiveBudget, in.Prizes)
	if !ok {
		return AntiEmptyResult{Status: AntiEmptyBudgetInsufficient, FinalTier: in.SelectedTier}
	}
	return AntiEmptyResult{Status: AntiEmptyForced, FinalTier: t, Cost: cost}
}

// cheapestAffordable scans the available non-empty tiers for the one whose
// cheapest in-stock prize fits the budget. Shared by anti-empty forcing and
// the hard-pity guarantee.
func cheapestAffordable(available []Tier, budget float64, prizes map[Tier]TierPrizeView) (Tier, int64, bool) {
	found := false
	var bestTier Tier
	var bestCost int64
	for _, t := range available {
		if t.Empty() {
			continue
		}
		view, ok := prizes[t]
		if !ok || view.Count <= 0 {
			continue
		}
		if float64(view.MinCost) > budget {
			continue
		}
		if !found || view.MinCost < bestCost {
			found = true
			bestTier = t
			bestCost = view.MinCost
		}
	}
	return bestTier, bestCost, found
}
