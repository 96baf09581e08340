package campaign

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/lottery-engine/internal/prize"
)

// Validate checks field-level constraints of raw (possibly merged)
// parameters. Cross-field relations that only settle after the merge with
// built-in defaults are checked again in Resolve.
func (r RawParams) Validate() error {
	var errs []string

	if w := r.Weights; w != nil {
		if bad(w.High) {
			errs = append(errs, "weights.high must be a finite number >= 0")
		}
		if bad(w.Mid) {
			errs = append(errs, "weights.mid must be a finite number >= 0")
		}
		if bad(w.Low) {
			errs = append(errs, "weights.low must be a finite number >= 0")
		}
		if bad(w.Fallback) {
			errs = append(errs, "weights.fallback must be a finite number >= 0")
		}
	}

	if b := r.Budget; b != nil {
		if b.Low != nil && (*b.Low <= 0 || math.IsNaN(*b.Low) || math.IsInf(*b.Low, 0)) {
			errs = append(errs, "budget.low must be a finite number > 0")
		}
		if b.Mid != nil && (*b.Mid <= 0 || math.IsNaN(*b.Mid) || math.IsInf(*b.Mid, 0)) {
			errs = append(errs, "budget.mid must be a finite number > 0")
		}
		if b.High != nil && (*b.High <= 0 || math.IsNaN(*b.High) || math.IsInf(*b.High, 0)) {
			errs = append(errs, "budget.high must be a finite number > 0")
		}
		if b.Low != nil && b.Mid != nil && *b.Mid <= *b.Low {
			errs = append(errs, "budget.mid must be > budget.low")
		}
		if b.Mid != nil && b.High != nil && *b.High <= *b.Mid {
			errs = append(errs, "budget.high must be > budget.mid")
		}
	}

	if p := r.Pity; p != nil {
		for i, s := range p.Soft {
			if s.Streak == nil || s.Multiplier == nil {
				errs = append(errs, fmt.Sprintf("pity.soft[%d] needs streak and multiplier", i))
				continue
			}
			if *s.Streak < 1 {
				errs = append(errs, fmt.Sprintf("pity.soft[%d].streak must be >= 1", i))
			}
			if *s.Multiplier < 1 || math.IsNaN(*s.Multiplier) || math.IsInf(*s.Multiplier, 0) {
				errs = append(errs, fmt.Sprintf("pity.soft[%d].multiplier must be a finite number >= 1", i))
			}
			if p.Hard != nil && *s.Streak >= *p.Hard {
				errs = append(errs, fmt.Sprintf("pity.soft[%d].streak must be < pity.hard", i))
			}
		}
		if p.Hard != nil && *p.Hard < 1 {
			errs = append(errs, "pity.hard must be >= 1")
		}
	}

	if d := r.LuckDebt; d != nil {
		if d.MinSampleSize != nil && *d.MinSampleSize < 0 {
			errs = append(errs, "luck_debt.min_sample_size must be >= 0")
		}
		if d.ExpectedEmptyRate != nil && (*d.ExpectedEmptyRate <= 0 || *d.ExpectedEmptyRate >= 1) {
			errs = append(errs, "luck_debt.expected_empty_rate must be in (0,1)")
		}
		if d.NoneMax != nil && (*d.NoneMax < 0 || *d.NoneMax > 1) {
			errs = append(errs, "luck_debt.none_max must be in [0,1]")
		}
		if d.LowMax != nil && (*d.LowMax < 0 || *d.LowMax > 1) {
			errs = append(errs, "luck_debt.low_max must be in [0,1]")
		}
		if d.MediumMax != nil && (*d.MediumMax < 0 || *d.MediumMax > 1) {
			errs = append(errs, "luck_debt.medium_max must be in [0,1]")
		}
		if d.LowMult != nil && *d.LowMult < 1 {
			errs = append(errs, "luck_debt.low_mult must be >= 1")
		}
		if d.MediumMult != nil && *d.MediumMult < 1 {
			errs = append(errs, "luck_debt.medium_mult must be >= 1")
		}
		if d.HighMult != nil && *d.HighMult < 1 {
			errs = append(errs, "luck_debt.high_mult must be >= 1")
		}
	}

	if a := r.AntiEmpty; a != nil {
		if a.Threshold != nil && *a.Threshold < 1 {
			errs = append(errs, "anti_empty.threshold must be >= 1")
		}
	}

	if a := r.AntiHigh; a != nil {
		if a.Streak != nil && *a.Streak < 1 {
			errs = append(errs, "anti_high.streak must be >= 1")
		}
		if a.Reduction != nil && (*a.Reduction <= 0 || *a.Reduction > 1) {
			errs = append(errs, "anti_high.reduction must be in (0,1]")
		}
		if a.Cooldown != nil && *a.Cooldown < 0 {
			errs = append(errs, "anti_high.cooldown must be >= 0")
		}
	}

	if w := r.Window; w != nil {
		if w.Start != nil && w.End != nil && !w.End.After(*w.Start) {
			errs = append(errs, "window.end must be after window.start")
		}
	}

	if c := r.Cost; c != nil {
		if c.PointsPerDraw != nil && *c.PointsPerDraw <= 0 {
			errs = append(errs, "cost.points_per_draw must be > 0")
		}
		if c.BundleSize != nil && *c.BundleSize < 0 {
			errs = append(errs, "cost.bundle_size must be >= 0")
		}
		if c.BundlePoints != nil && *c.BundlePoints < 0 {
			errs = append(errs, "cost.bundle_points must be >= 0")
		}
	}

	if len(r.Prizes) > 0 {
		if err := (prize.Catalog{Prizes: r.Prizes}).Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("campaign validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// bad reports a weight pointer holding an unusable value.
func bad(v *float64) bool {
	return v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0))
}
