package campaign

import (
	"fmt"
	"strings"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/prize"
)

// Resolve merges the raw parameters over the built-in defaults and checks
// the relations that only settle once every field has a value.
func (r RawParams) Resolve() (Params, error) {
	var errs []string

	cfg := engine.DefaultEngineConfig()

	if w := r.Weights; w != nil {
		if w.High != nil {
			cfg.BaseWeights[engine.TierHigh] = *w.High
		}
		if w.Mid != nil {
			cfg.BaseWeights[engine.TierMid] = *w.Mid
		}
		if w.Low != nil {
			cfg.BaseWeights[engine.TierLow] = *w.Low
		}
		if w.Fallback != nil {
			cfg.BaseWeights[engine.TierFallback] = *w.Fallback
		}
	}
	var total float64
	for _, v := range cfg.BaseWeights {
		total += v
	}
	if total <= 0 {
		errs = append(errs, "weights must keep at least one tier positive")
	}

	if b := r.Budget; b != nil {
		if b.Low != nil {
			cfg.Budget.Low = *b.Low
		}
		if b.Mid != nil {
			cfg.Budget.Mid = *b.Mid
		}
		if b.High != nil {
			cfg.Budget.High = *b.High
		}
	}
	if !(cfg.Budget.Low > 0 && cfg.Budget.Mid > cfg.Budget.Low && cfg.Budget.High > cfg.Budget.Mid) {
		errs = append(errs, "budget thresholds must be ascending: low < mid < high")
	}

	if p := r.Pity; p != nil {
		if len(p.Soft) > 0 {
			ladder := make([]engine.PityThreshold, 0, len(p.Soft))
			for i, s := range p.Soft {
				if s.Streak == nil || s.Multiplier == nil {
					errs = append(errs, fmt.Sprintf("pity.soft[%d] needs streak and multiplier", i))
					continue
				}
				ladder = append(ladder, engine.PityThreshold{
					Streak:      *s.Streak,
					Multiplier:  *s.Multiplier,
					Description: s.Label,
				})
			}
			cfg.Pity.Soft = ladder
		}
		if p.Hard != nil {
			cfg.Pity.HardStreak = *p.Hard
		}
	}

	if d := r.LuckDebt; d != nil {
		if d.MinSampleSize != nil {
			cfg.LuckDebt.MinSampleSize = *d.MinSampleSize
		}
		if d.ExpectedEmptyRate != nil {
			cfg.LuckDebt.ExpectedEmptyRate = *d.ExpectedEmptyRate
		}
		if d.NoneMax != nil {
			cfg.LuckDebt.NoneMax = *d.NoneMax
		}
		if d.LowMax != nil {
			cfg.LuckDebt.LowMax = *d.LowMax
		}
		if d.MediumMax != nil {
			cfg.LuckDebt.MediumMax = *d.MediumMax
		}
		if d.LowMult != nil {
			cfg.LuckDebt.LowMult = *d.LowMult
		}
		if d.MediumMult != nil {
			cfg.LuckDebt.MediumMult = *d.MediumMult
		}
		if d.HighMult != nil {
			cfg.LuckDebt.HighMult = *d.HighMult
		}
	}
	if !(cfg.LuckDebt.NoneMax < cfg.LuckDebt.LowMax && cfg.LuckDebt.LowMax < cfg.LuckDebt.MediumMax) {
		errs = append(errs, "luck_debt bands must be ascending: none_max < low_max < medium_max")
	}

	if a := r.AntiEmpty; a != nil && a.Threshold != nil {
		cfg.AntiEmptyThreshold = *a.Threshold
	}

	if a := r.AntiHigh; a != nil {
		if a.Streak != nil {
			cfg.AntiHigh.StreakThreshold = *a.Streak
		}
		if a.Reduction != nil {
			cfg.AntiHigh.ReductionFactor = *a.Reduction
		}
		if a.Cooldown != nil {
			cfg.AntiHigh.CooldownDraws = *a.Cooldown
		}
	}

	cost := prize.DefaultCostModel()
	if c := r.Cost; c != nil {
		if c.PointsPerDraw != nil {
			cost.PointsPerDraw = *c.PointsPerDraw
		}
		if c.BundleSize != nil {
			cost.BundleSize = *c.BundleSize
		}
		if c.BundlePoints != nil {
			cost.BundlePoints = *c.BundlePoints
		}
	}

	out := Params{
		Name:    r.Name,
		Engine:  cfg,
		Catalog: prize.Catalog{Prizes: append([]prize.Prize(nil), r.Prizes...)},
		Cost:    cost,
	}
	if w := r.Window; w != nil {
		if w.Start != nil {
			out.Start = *w.Start
		}
		if w.End != nil {
			out.End = *w.End
		}
	}
	if !out.Start.IsZero() && !out.End.IsZero() && !out.End.After(out.Start) {
		errs = append(errs, "window.end must be after window.start")
	}

	if len(errs) > 0 {
		return Params{}, fmt.Errorf("campaign resolve failed: %s", strings.Join(errs, "; "))
	}
	return out, nil
}
