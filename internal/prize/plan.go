package prize

import "math"

// Plan is a charge breakdown over draw SKUs.
type Plan struct {
	Items       []LineItem
	TotalPoints int64
	TotalDraws  int
}

// LineItem is one SKU position in a plan.
type LineItem struct {
	Kind   string // "single" or "bundle"
	Qty    int
	Unit   int64 // points per unit
	Draws  int   // draws per unit
	Points int64
}

type sku struct {
	kind  string
	draws int
	cost  int64
}

func (m CostModel) skus() []sku {
	out := []sku{{kind: "single", draws: 1, cost: m.PointsPerDraw}}
	if size, points, ok := m.bundle(); ok {
		out = append(out, sku{kind: "bundle", draws: size, cost: points})
	}
	return out
}

// MinPointsForDraws finds the cheapest charge that buys at least the wanted
// number of draws. A discounted bundle may overshoot the target when that
// ends up cheaper than paying singles.
func MinPointsForDraws(m CostModel, draws int) Plan {
	if draws <= 0 || m.PointsPerDraw <= 0 {
		return Plan{}
	}
	skus := m.skus()

	maxDraws := 1
	for _, s := range skus {
		if s.draws > maxDraws {
			maxDraws = s.draws
		}
	}
	limit := draws + maxDraws

	const inf = int64(math.MaxInt64)
	dp := make([]int64, limit+1)  // min cost to reach exactly d draws
	pr := make([]int, limit+1)    // chosen sku index
	prev := make([]int, limit+1)  // previous d
	for d := range dp {
		dp[d] = inf
		pr[d] = -1
		prev[d] = -1
	}
	dp[0] = 0

	for d := 0; d <= limit; d++ {
		if dp[d] == inf {
			continue
		}
		for i, s := range skus {
			nd := d + s.draws
			if nd > limit {
				nd = limit
			}
			cost := dp[d] + s.cost
			if cost < dp[nd] {
				dp[nd] = cost
				pr[nd] = i
				prev[nd] = d
			}
		}
	}

	bestD, bestCost := draws, dp[draws]
	for d := draws; d <= limit; d++ {
		if dp[d] < bestCost {
			bestD, bestCost = d, dp[d]
		}
	}

	counts := make([]int, len(skus))
	for d := bestD; d > 0 && pr[d] != -1; d = prev[d] {
		counts[pr[d]]++
	}
	return buildPlan(skus, counts)
}

// MaxDrawsUnderPoints finds the most draws the points can buy. With a
// discounted bundle, swapping any ten singles for a bundle only frees
// points, so filling bundles first is optimal.
func MaxDrawsUnderPoints(m CostModel, points int64) Plan {
	if points <= 0 || m.PointsPerDraw <= 0 {
		return Plan{}
	}
	skus := m.skus()
	counts := make([]int, len(skus))

	left := points
	if size, bp, ok := m.bundle(); ok && bp <= int64(size)*m.PointsPerDraw {
		counts[1] = int(left / bp)
		left -= int64(counts[1]) * bp
	}
	counts[0] = int(left / m.PointsPerDraw)
	return buildPlan(skus, counts)
}

func buildPlan(skus []sku, counts []int) Plan {
	var plan Plan
	for i, s := range skus {
		qty := counts[i]
		if qty == 0 {
			continue
		}
		pts := int64(qty) * s.cost
		plan.Items = append(plan.Items, LineItem{
			Kind:   s.kind,
			Qty:    qty,
			Unit:   s.cost,
			Draws:  s.draws,
			Points: pts,
		})
		plan.TotalPoints += pts
		plan.TotalDraws += qty * s.draws
	}
	return plan
}
