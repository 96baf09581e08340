// Package prize holds the campaign prize catalog, the draw cost model and
// the budget planning helpers built on top of them.
package prize

import (
	"fmt"
	"strings"

	"github.com/xtding233/lottery-engine/internal/engine"
)

// Prize is one grantable reward. Cost is what a grant debits from the
// campaign budget, Weight its selection weight within the tier, Stock the
// remaining inventory (-1 means unlimited).
type Prize struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Tier   engine.Tier `yaml:"tier"`
	Cost   int64       `yaml:"cost"`
	Weight int         `yaml:"weight"`
	Stock  int         `yaml:"stock"`
}

// InStock reports whether the prize can still be granted.
func (p Prize) InStock() bool { return p.Stock != 0 }

// Catalog is a campaign's prize set.
type Catalog struct {
	Prizes []Prize
}

// Validate checks semantic constraints of a catalog.
func (c Catalog) Validate() error {
	var errs []string
	seen := make(map[string]bool, len(c.Prizes))
	for i, p := range c.Prizes {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("prizes[%d].id must not be empty", i))
		} else if seen[p.ID] {
			errs = append(errs, fmt.Sprintf("prizes[%d].id %q duplicated", i, p.ID))
		}
		seen[p.ID] = true
		if !p.Tier.Valid() || p.Tier.Empty() {
			errs = append(errs, fmt.Sprintf("prizes[%d].tier must be high, mid or low", i))
		}
		if p.Cost <= 0 {
			errs = append(errs, fmt.Sprintf("prizes[%d].cost must be > 0", i))
		}
		if p.Weight <= 0 {
			errs = append(errs, fmt.Sprintf("prizes[%d].weight must be > 0", i))
		}
		if p.Stock < -1 {
			errs = append(errs, fmt.Sprintf("prizes[%d].stock must be >= -1", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ForTier returns the in-stock prizes of one tier, in catalog order.
func (c Catalog) ForTier(tier engine.Tier) []Prize {
	var out []Prize
	for _, p := range c.Prizes {
		if p.Tier == tier && p.InStock() {
			out = append(out, p)
		}
	}
	return out
}

// TierView summarizes the in-stock catalog per tier for the decision
// pipeline: grantable count and cheapest cost.
func (c Catalog) TierView() map[engine.Tier]engine.TierPrizeView {
	out := make(map[engine.Tier]engine.TierPrizeView)
	for _, p := range c.Prizes {
		if !p.InStock() {
			continue
		}
		v := out[p.Tier]
		v.Count++
		if v.Count == 1 || p.Cost < v.MinCost {
			v.MinCost = p.Cost
		}
		out[p.Tier] = v
	}
	return out
}

// Pick selects one prize of the tier, weighted, among in-stock entries whose
// cost fits the budget. ok is false when nothing qualifies.
func (c Catalog) Pick(tier engine.Tier, budget float64, rng engine.RandomSource) (Prize, bool) {
	var candidates []Prize
	var total float64
	for _, p := range c.Prizes {
		if p.Tier != tier || !p.InStock() || float64(p.Cost) > budget {
			continue
		}
		candidates = append(candidates, p)
		total += float64(p.Weight)
	}
	if len(candidates) == 0 || total <= 0 {
		return Prize{}, false
	}
	if rng == nil {
		rng = engine.DefaultRNG()
	}
	r := rng.Float64() * total
	var acc float64
	for _, p := range candidates {
		acc += float64(p.Weight)
		if r < acc {
			return p, true
		}
	}
	return candidates[len(candidates)-1], true
}
