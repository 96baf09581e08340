// Package rollout gates the smoothing mechanisms behind per-feature flags
// with percentage ramps and whitelists, so a misbehaving mechanism can be
// switched off without a deploy.
package rollout

import (
	"hash/fnv"
	"sync"

	"github.com/xtding233/lottery-engine/internal/engine"
)

// Decision reasons, recorded for audit.
const (
	ReasonNotConfigured       = "not_configured"
	ReasonGlobalDisabled      = "global_disabled"
	ReasonWhitelistedUser     = "whitelisted_user"
	ReasonWhitelistedCampaign = "whitelisted_campaign"
	ReasonInPercentage        = "in_percentage"
	ReasonOutOfPercentage     = "out_of_percentage"
)

// Gate evaluates rollout decisions against the currently loaded config.
// Reload swaps the config atomically; in-flight requests keep the decisions
// they were computed with.
type Gate struct {
	mu  sync.RWMutex
	cfg Config
}

func New(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Reload replaces the active config.
func (g *Gate) Reload(cfg Config) {
	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()
}

// Decide evaluates one feature for one user in one campaign. The user's
// bucket is a stable hash of the user id, so ramping the percentage up only
// ever adds users, never flips existing ones out.
func (g *Gate) Decide(feature, userID, campaignID string) engine.FeatureDecision {
	g.mu.RLock()
	fc, ok := g.cfg.Features[feature]
	g.mu.RUnlock()

	d := engine.FeatureDecision{
		Feature:    feature,
		Percentage: 100,
		UserHash:   hashUint32(userID) % 100,
	}
	if !ok {
		d.Enabled = true
		d.Reason = ReasonNotConfigured
		return d
	}
	if fc.Percentage != nil {
		d.Percentage = clampPercent(*fc.Percentage)
	}

	if fc.GlobalEnabled != nil && !*fc.GlobalEnabled {
		d.Reason = ReasonGlobalDisabled
		return d
	}
	for _, u := range fc.UserWhitelist {
		if u == userID {
			d.Enabled = true
			d.Reason = ReasonWhitelistedUser
			return d
		}
	}
	for _, c := range fc.CampaignWhitelist {
		if c == campaignID {
			d.Enabled = true
			d.Reason = ReasonWhitelistedCampaign
			return d
		}
	}
	if int(d.UserHash) < d.Percentage {
		d.Enabled = true
		d.Reason = ReasonInPercentage
	} else {
		d.Reason = ReasonOutOfPercentage
	}
	return d
}

// DecideAll evaluates every gated mechanism at once. Called once per draw
// request; the result rides through the whole computation unchanged.
func (g *Gate) DecideAll(userID, campaignID string) engine.FeatureDecisions {
	return engine.FeatureDecisions{
		Pity:      g.Decide(engine.FeaturePity, userID, campaignID),
		LuckDebt:  g.Decide(engine.FeatureLuckDebt, userID, campaignID),
		AntiEmpty: g.Decide(engine.FeatureAntiEmpty, userID, campaignID),
		AntiHigh:  g.Decide(engine.FeatureAntiHigh, userID, campaignID),
	}
}

// FeatureSummary is the status-endpoint view of one feature's knobs.
type FeatureSummary struct {
	GlobalEnabled        bool `json:"global_enabled"`
	Percentage           int  `json:"percentage"`
	WhitelistedUsers     int  `json:"whitelisted_users"`
	WhitelistedCampaigns int  `json:"whitelisted_campaigns"`
}

// Summary reports the active knobs per configured feature.
func (g *Gate) Summary() map[string]FeatureSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]FeatureSummary, len(g.cfg.Features))
	for name, fc := range g.cfg.Features {
		s := FeatureSummary{GlobalEnabled: true, Percentage: 100}
		if fc.GlobalEnabled != nil {
			s.GlobalEnabled = *fc.GlobalEnabled
		}
		if fc.Percentage != nil {
			s.Percentage = clampPercent(*fc.Percentage)
		}
		s.WhitelistedUsers = len(fc.UserWhitelist)
		s.WhitelistedCampaigns = len(fc.CampaignWhitelist)
		out[name] = s
	}
	return out
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func hashUint32(value string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return h.Sum32()
}
