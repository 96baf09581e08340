package engine

// Feature names understood by the smoothing pipeline.
const (
	FeaturePity      = "pity"
	FeatureLuckDebt  = "luck_debt"
	FeatureAntiEmpty = "anti_empty"
	FeatureAntiHigh  = "anti_high"
)

// FeatureDecision records one rollout gate evaluation. It is computed once
// per request and threaded through the pipeline so no step reads flag state
// mid-computation.
type FeatureDecision struct {
	Feature    string
	Enabled    bool
	Reason     string
	Percentage int
	UserHash   uint32 // deterministic bucket 0..99
}

// FeatureDecisions bundles the decision for every gated mechanism.
type FeatureDecisions struct {
	Pity      FeatureDecision
	LuckDebt  FeatureDecision
	AntiEmpty FeatureDecision
	AntiHigh  FeatureDecision
}

// AllFeaturesEnabled is the ungated set used by simulations and tests.
func AllFeaturesEnabled() FeatureDecisions {
	on := func(name string) FeatureDecision {
		return FeatureDecision{Feature: name, Enabled: true, Reason: "not_configured", Percentage: 100}
	}
	return FeatureDecisions{
		Pity:      on(FeaturePity),
		LuckDebt:  on(FeatureLuckDebt),
		AntiEmpty: on(FeatureAntiEmpty),
		AntiHigh:  on(FeatureAntiHigh),
	}
}
