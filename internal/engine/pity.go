package engine

import (
	"math"
	"sort"
)

// PityThreshold is one step of the soft pity ladder: at Streak consecutive
// empties the non-empty weights get multiplied by Multiplier.
type PityThreshold struct {
	Streak      int
	Multiplier  float64
	Description string
}

// PityConfig is the full ladder plus the hard guarantee. At HardStreak the
// multiplier becomes +Inf: the next outcome is guaranteed non-empty as far
// as tier availability and affordability allow.
type PityConfig struct {
	Soft       []PityThreshold
	HardStreak int
}

func DefaultPityConfig() PityConfig {
	return PityConfig{
		Soft: []PityThreshold{
			{Streak: 3, Multiplier: 1.1, Description: "light"},
			{Streak: 5, Multiplier: 1.25, Description: "medium"},
			{Streak: 7, Multiplier: 1.5, Description: "heavy"},
		},
		HardStreak: 10,
	}
}

// normalized sorts the ladder by streak and drops unusable steps. Steps at
// or past the hard streak never apply.
func (c PityConfig) normalized() PityConfig {
	out := PityConfig{HardStreak: c.HardStreak}
	for _, th := range c.Soft {
		if th.Streak <= 0 || th.Multiplier < 1 || math.IsNaN(th.Multiplier) || math.IsInf(th.Multiplier, 0) {
			continue
		}
		if out.HardStreak > 0 && th.Streak >= out.HardStreak {
			continue
		}
		out.Soft = append(out.Soft, th)
	}
	sort.Slice(out.Soft, func(i, j int) bool { return out.Soft[i].Streak < out.Soft[j].Streak })
	return out
}

// PityResult reports how the ladder resolved for one streak value.
type PityResult struct {
	Triggered     bool
	HardTriggered bool
	Multiplier    float64 // +Inf when HardTriggered
	Streak        int     // the threshold that matched, 0 when none
	Description   string
}

// EvaluatePity walks the ladder for the user's empty streak. A negative
// streak is invalid input and treated as 0. The result depends only on the
// streak: budget and pressure tiers never mute it.
func EvaluatePity(emptyStreak int, cfg PityConfig) PityResult {
	if emptyStreak < 0 {
		emptyStreak = 0
	}
	cfg = cfg.normalized()

	if cfg.HardStreak > 0 && emptyStreak >= cfg.HardStreak {
		return PityResult{
			Triggered:     true,
			HardTriggered: true,
			Multiplier:    math.Inf(1),
			Streak:        cfg.HardStreak,
			Description:   "hard pity",
		}
	}

	res := PityResult{Multiplier: 1.0}
	for _, th := range cfg.Soft {
		if emptyStreak < th.Streak {
			break
		}
		res.Triggered = true
		res.Multiplier = th.Multiplier
		res.Streak = th.Streak
		res.Description = th.Description
	}
	return res
}
