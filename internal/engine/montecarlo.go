package engine

import (
	"math"
	"sort"
	"strings"
)

// SimParams describes one simulated campaign run against the full pipeline.
type SimParams struct {
	Seed   uint64
	Draws  int
	Budget float64 // opening campaign budget in points value

	Config EngineConfig
	Prizes map[Tier]TierPrizeView // catalog summary; MinCost doubles as the per-grant spend
}

// SimReport summarizes one run.
type SimReport struct {
	Draws        int              `json:"draws"`
	TierCounts   map[Tier]int     `json:"tier_counts"`
	EmptyRate    float64          `json:"empty_rate"`
	HardPity     int              `json:"hard_pity"`
	Forced       int              `json:"forced"`
	Downgraded   int              `json:"downgraded"`
	Spend        float64          `json:"spend"`
	BudgetLeft   float64          `json:"budget_left"`
	ExhaustedAt  int              `json:"exhausted_at"` // first draw classified B0, -1 if never
	EmptyStreaks Stats            `json:"empty_streaks"`
	FinalBudget  BudgetTier       `json:"final_budget_tier"`
}

// Stats summarizes integer samples.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// raw samples if the caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// RunSimulation replays one user drawing through an entire campaign window
// with every mechanism enabled, tracking budget depletion the way the live
// pipeline would. Deterministic for a given seed.
func RunSimulation(p SimParams) (SimReport, error) {
	report := SimReport{
		TierCounts:  make(map[Tier]int, len(DrawOrder)),
		BudgetLeft:  p.Budget,
		ExhaustedAt: -1,
	}
	if p.Draws <= 0 {
		return report, nil
	}

	orch := NewOrchestrator(p.Config, NewSeededRNG(p.Seed))
	features := AllFeaturesEnabled()
	budget := p.Budget
	var exp ExperienceState
	var global GlobalStats
	var streaks []int

	for i := 0; i < p.Draws; i++ {
		consumption := 0.0
		if p.Budget > 0 {
			consumption = (p.Budget - budget) / p.Budget
		}
		in := ComputeInput{
			UserID:              "sim",
			CampaignID:          "sim",
			EffectiveBudget:     budget,
			TimeProgress:        float64(i) / float64(p.Draws),
			ConsumptionProgress: consumption,
			Experience:          exp,
			Global:              &global,
			Prizes:              p.Prizes,
			Features:            features,
		}
		dec, err := orch.Compute(in)
		if err != nil {
			return SimReport{}, err
		}
		if report.ExhaustedAt < 0 && dec.BudgetTier == BudgetB0 {
			report.ExhaustedAt = i
		}

		// fulfillment: the decided tier must still be affordable and stocked
		final := dec.FinalTier
		for !final.Empty() {
			view, ok := p.Prizes[final]
			if ok && view.Count > 0 && float64(view.MinCost) <= budget {
				break
			}
			final = final.NextLower()
		}
		dec = dec.Revise(exp, final)

		for _, m := range dec.Applied {
			switch m.Type {
			case MechanismPityHard:
				if strings.HasPrefix(m.Detail, "forced") {
					report.HardPity++
				}
			case MechanismAntiEmpty:
				if strings.HasPrefix(m.Detail, "forced") {
					report.Forced++
				}
			case MechanismAntiHigh:
				report.Downgraded++
			}
		}

		report.TierCounts[final]++
		if !final.Empty() {
			if view, ok := p.Prizes[final]; ok {
				budget -= float64(view.MinCost)
				report.Spend += float64(view.MinCost)
			}
			if exp.EmptyStreak > 0 {
				streaks = append(streaks, exp.EmptyStreak)
			}
		}

		global.DrawCount++
		if final.Empty() {
			global.EmptyCount++
		}
		exp = dec.NextExperience
	}

	if exp.EmptyStreak > 0 {
		streaks = append(streaks, exp.EmptyStreak)
	}

	report.Draws = p.Draws
	report.EmptyRate = global.EmptyRate()
	report.BudgetLeft = budget
	report.EmptyStreaks = calcStats(streaks)
	report.FinalBudget = ClassifyBudget(budget, orch.Config().Budget).Tier
	return report, nil
}
