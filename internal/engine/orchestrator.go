package engine

import (
	"fmt"
	"math"
)

// EngineConfig bundles every tunable of the decision pipeline. Zero-value
// fields are replaced with the package defaults at construction.
type EngineConfig struct {
	Budget             BudgetThresholds
	BaseWeights        TierWeights
	Pity               PityConfig
	LuckDebt           LuckDebtConfig
	AntiEmptyThreshold int
	AntiHigh           AntiHighConfig
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Budget:             DefaultBudgetThresholds(),
		BaseWeights:        DefaultBaseWeights(),
		Pity:               DefaultPityConfig(),
		LuckDebt:           DefaultLuckDebtConfig(),
		AntiEmptyThreshold: DefaultAntiEmptyThreshold,
		AntiHigh:           DefaultAntiHighConfig(),
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	if !c.Budget.valid() {
		c.Budget = DefaultBudgetThresholds()
	}
	if len(c.BaseWeights) == 0 {
		c.BaseWeights = DefaultBaseWeights()
	}
	if c.Pity.HardStreak <= 0 && len(c.Pity.Soft) == 0 {
		c.Pity = DefaultPityConfig()
	}
	if c.LuckDebt == (LuckDebtConfig{}) {
		c.LuckDebt = DefaultLuckDebtConfig()
	}
	if c.AntiEmptyThreshold <= 0 {
		c.AntiEmptyThreshold = DefaultAntiEmptyThreshold
	}
	if c.AntiHigh.StreakThreshold <= 0 {
		c.AntiHigh = DefaultAntiHighConfig()
	}
	return c
}

// Mechanism type labels recorded in Decision.Applied.
const (
	MechanismPitySoft      = "pity_soft"
	MechanismPityHard      = "pity_hard"
	MechanismLuckDebt      = "luck_debt"
	MechanismAntiEmpty     = "anti_empty"
	MechanismAntiHigh      = "anti_high"
	MechanismAdminOverride = "admin_override"
	MechanismStockDegraded = "stock_degraded"
)

// Mechanism is one audit entry: which mechanism touched the outcome and how.
type Mechanism struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// TraceEntry records one multiplier application for audit replay. An empty
// Tier means the multiplier applied to every non-empty tier.
type TraceEntry struct {
	Source     string  `json:"source"`
	Tier       Tier    `json:"tier,omitempty"`
	Multiplier float64 `json:"multiplier"`
}

// ComputeInput is everything one draw decision depends on. Callers load all
// state up front; Compute itself reads nothing and mutates nothing.
type ComputeInput struct {
	UserID              string
	CampaignID          string
	EffectiveBudget     float64
	TimeProgress        float64
	ConsumptionProgress float64
	BaseWeights         TierWeights // nil means the configured base weights
	Experience          ExperienceState
	Global              *GlobalStats
	Prizes              map[Tier]TierPrizeView
	Features            FeatureDecisions
}

// Decision is the committed outcome of the pipeline, sufficient for prize
// fulfillment and audit replay.
type Decision struct {
	FinalTier        Tier
	ProvisionalTier  Tier // tier drawn before smoothing
	BudgetTier       BudgetTier
	PressureTier     PressureTier
	PressureIndex    float64
	AvailableTiers   []Tier
	FinalWeights     TierWeights
	SmoothingApplied bool
	Applied          []Mechanism
	Trace            []TraceEntry
	Degraded         []string
	NextExperience   ExperienceState
}

// Orchestrator composes the classifiers, the matrix, the weighted draw and
// the smoothing mechanisms. It holds no mutable state, so one instance is
// safe for concurrent use; tests construct fresh ones.
type Orchestrator struct {
	cfg EngineConfig
	rng RandomSource
}

func NewOrchestrator(cfg EngineConfig, rng RandomSource) *Orchestrator {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Orchestrator{cfg: cfg.withDefaults(), rng: rng}
}

func (o *Orchestrator) Config() EngineConfig { return o.cfg }

// Compute runs one full decision: classify, gate, adjust, draw, smooth.
// Invalid numeric inputs degrade conservatively and are listed in
// Decision.Degraded; only an impossible weight distribution returns error.
func (o *Orchestrator) Compute(in ComputeInput) (Decision, error) {
	var dec Decision

	bc := ClassifyBudget(in.EffectiveBudget, o.cfg.Budget)
	dec.BudgetTier = bc.Tier
	if bc.Degraded {
		dec.Degraded = append(dec.Degraded, bc.Note)
	}

	pc := ClassifyPressure(PressureIndex(in.ConsumptionProgress, in.TimeProgress))
	dec.PressureTier = pc.Tier
	dec.PressureIndex = pc.Index
	if pc.Degraded {
		dec.Degraded = append(dec.Degraded, pc.Note)
	}

	base := in.BaseWeights
	if len(base) == 0 {
		base = o.cfg.BaseWeights
	}
	mx := CalculateMatrix(MatrixInput{BudgetTier: bc.Tier, PressureTier: pc.Tier, BaseWeights: base})
	dec.AvailableTiers = mx.AvailableTiers
	dec.Degraded = append(dec.Degraded, mx.Notes...)

	weights := mx.FinalWeights.Clone()
	for _, t := range DrawOrder {
		if m := mx.Multipliers[t]; m != 1 && weights[t] > 0 {
			dec.Trace = append(dec.Trace, TraceEntry{Source: "pressure", Tier: t, Multiplier: m})
		}
	}

	// pre-draw multipliers: soft pity, then luck debt
	pity := PityResult{Multiplier: 1}
	if in.Features.Pity.Enabled {
		pity = EvaluatePity(in.Experience.EmptyStreak, o.cfg.Pity)
		if pity.Triggered && !pity.HardTriggered {
			scaleNonEmpty(weights, pity.Multiplier)
			dec.Trace = append(dec.Trace, TraceEntry{Source: MechanismPitySoft, Multiplier: pity.Multiplier})
			dec.Applied = append(dec.Applied, Mechanism{
				Type:   MechanismPitySoft,
				Detail: fmt.Sprintf("threshold %d (%s) x%.2f", pity.Streak, pity.Description, pity.Multiplier),
			})
		}
	}
	if in.Features.LuckDebt.Enabled {
		debt := EvaluateLuckDebt(in.Global, true, o.cfg.LuckDebt)
		if debt.Multiplier > 1 {
			scaleNonEmpty(weights, debt.Multiplier)
			dec.Trace = append(dec.Trace, TraceEntry{Source: MechanismLuckDebt, Multiplier: debt.Multiplier})
			dec.Applied = append(dec.Applied, Mechanism{
				Type:   MechanismLuckDebt,
				Detail: fmt.Sprintf("%s debt, deviation %+.3f", debt.Level, debt.Deviation),
			})
		}
	}

	provisional, err := DrawTier(weights, o.rng)
	if err != nil {
		return Decision{}, err
	}
	dec.ProvisionalTier = provisional

	final := o.applyExperienceSmoothing(&dec, in, mx, pity, provisional)

	cooldownSet := 0
	if in.Features.AntiHigh.Enabled {
		hr := HandleAntiHigh(AntiHighInput{
			RecentHighCount:  in.Experience.RecentHighCount,
			AntiHighCooldown: in.Experience.AntiHighCooldown,
			SelectedTier:     final,
			Weights:          weights,
			AvailableTiers:   mx.AvailableTiers,
		}, o.cfg.AntiHigh)
		if hr.Status == AntiHighDowngraded {
			final = hr.FinalTier
			weights = hr.AdjustedWeights
			cooldownSet = hr.CooldownSet
			dec.SmoothingApplied = true
			dec.Applied = append(dec.Applied, Mechanism{
				Type:   MechanismAntiHigh,
				Detail: fmt.Sprintf("downgraded to %s, cooldown %d", hr.FinalTier, hr.CooldownSet),
			})
			dec.Trace = append(dec.Trace, TraceEntry{Source: MechanismAntiHigh, Tier: TierHigh, Multiplier: o.cfg.AntiHigh.ReductionFactor})
		}
	}

	dec.FinalTier = final
	dec.FinalWeights = weights
	dec.NextExperience = AdvanceExperience(in.Experience, final, cooldownSet)
	return dec, nil
}

// applyExperienceSmoothing runs the post-draw guarantees in order: the hard
// pity first, then anti-empty forcing. Both yield to affordability; the
// budget is never overdrawn for a fairness guarantee.
func (o *Orchestrator) applyExperienceSmoothing(dec *Decision, in ComputeInput, mx MatrixResult, pity PityResult, provisional Tier) Tier {
	final := provisional

	if in.Features.Pity.Enabled && pity.HardTriggered {
		dec.Trace = append(dec.Trace, TraceEntry{Source: MechanismPityHard, Multiplier: math.Inf(1)})
		if final.Empty() {
			if t, cost, ok := cheapestAffordable(mx.AvailableTiers, in.EffectiveBudget, in.Prizes); ok {
				final = t
				dec.SmoothingApplied = true
				dec.Applied = append(dec.Applied, Mechanism{
					Type:   MechanismPityHard,
					Detail: fmt.Sprintf("forced %s (cost %d)", t, cost),
				})
			} else {
				dec.Applied = append(dec.Applied, Mechanism{Type: MechanismPityHard, Detail: "budget_insufficient"})
			}
		} else {
			dec.Applied = append(dec.Applied, Mechanism{Type: MechanismPityHard, Detail: "satisfied_by_draw"})
		}
	}

	if in.Features.AntiEmpty.Enabled {
		ar := HandleAntiEmpty(AntiEmptyInput{
			EmptyStreak:     in.Experience.EmptyStreak,
			SelectedTier:    final,
			AvailableTiers:  mx.AvailableTiers,
			EffectiveBudget: in.EffectiveBudget,
			Prizes:          in.Prizes,
			ForceThreshold:  o.cfg.AntiEmptyThreshold,
		})
		switch ar.Status {
		case AntiEmptyForced:
			final = ar.FinalTier
			dec.SmoothingApplied = true
			dec.Applied = append(dec.Applied, Mechanism{
				Type:   MechanismAntiEmpty,
				Detail: fmt.Sprintf("forced %s (cost %d)", ar.FinalTier, ar.Cost),
			})
		case AntiEmptyBudgetInsufficient:
			dec.Applied = append(dec.Applied, Mechanism{Type: MechanismAntiEmpty, Detail: "budget_insufficient"})
		}
	}
	return final
}

// scaleNonEmpty multiplies the positive non-empty weights. Gated tiers stay
// at 0: the budget gate dominates every compensation multiplier.
func scaleNonEmpty(w TierWeights, m float64) {
	for _, t := range DrawOrder {
		if t.Empty() {
			continue
		}
		if w[t] > 0 {
			w[t] *= m
		}
	}
}

// Revise moves the decision onto a different final tier, recomputing the
// follow-on experience state. Fulfillment uses it when prize selection lands
// below the decided tier (stock exhausted, affordability) or an override
// replaces it. A freshly installed anti-high cooldown survives the revision.
func (d Decision) Revise(cur ExperienceState, final Tier) Decision {
	if final == d.FinalTier {
		return d
	}
	set := 0
	if d.NextExperience.AntiHighCooldown != DecrementCooldown(cur.AntiHighCooldown) {
		set = d.NextExperience.AntiHighCooldown
	}
	d.FinalTier = final
	d.NextExperience = AdvanceExperience(cur, final, set)
	return d
}

// AdvanceExperience computes the streak counters after a committed outcome.
// The cooldown decrements exactly once per draw unless a downgrade just
// installed a fresh one.
func AdvanceExperience(cur ExperienceState, final Tier, cooldownSet int) ExperienceState {
	var next ExperienceState
	if final.Empty() {
		next.EmptyStreak = cur.EmptyStreak + 1
	}
	if final == TierHigh {
		next.RecentHighCount = cur.RecentHighCount + 1
	}
	if cooldownSet > 0 {
		next.AntiHighCooldown = cooldownSet
	} else {
		next.AntiHighCooldown = DecrementCooldown(cur.AntiHighCooldown)
	}
	return next
}

// Status reports the active tuning for health endpoints and the CLI.
type Status struct {
	BudgetThresholds   BudgetThresholds `json:"budget_thresholds"`
	PressureBounds     [2]float64       `json:"pressure_bounds"`
	Tiers              []Tier           `json:"tiers"`
	BaseWeights        TierWeights      `json:"base_weights"`
	Pity               PityConfig       `json:"pity"`
	LuckDebt           LuckDebtConfig   `json:"luck_debt"`
	AntiEmptyThreshold int              `json:"anti_empty_threshold"`
	AntiHigh           AntiHighConfig   `json:"anti_high"`
}

func (o *Orchestrator) Status() Status {
	return Status{
		BudgetThresholds:   o.cfg.Budget,
		PressureBounds:     [2]float64{pressureRelaxedMax, pressureOnPaceMax},
		Tiers:              append([]Tier(nil), DrawOrder...),
		BaseWeights:        o.cfg.BaseWeights.Clone(),
		Pity:               o.cfg.Pity,
		LuckDebt:           o.cfg.LuckDebt,
		AntiEmptyThreshold: o.cfg.AntiEmptyThreshold,
		AntiHigh:           o.cfg.AntiHigh,
	}
}
