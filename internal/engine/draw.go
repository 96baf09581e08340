package engine

import (
	"errors"
	"math"
)

var (
	ErrInvalidWeights   = errors.New("invalid tier weights; must be finite and non-negative")
	ErrNoPositiveWeight = errors.New("no tier carries positive weight")
)

// DrawTier picks one tier from the weight distribution. Weights must be
// finite and non-negative and at least one must be positive; the matrix
// guarantees that for every classified input.
func DrawTier(weights TierWeights, rng RandomSource) (Tier, error) {
	var total float64
	for _, t := range DrawOrder {
		w := weights[t]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return "", ErrInvalidWeights
		}
		total += w
	}
	if total <= 0 {
		return "", ErrNoPositiveWeight
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	r := rng.Float64() * total
	var acc float64
	last := TierFallback
	for _, t := range DrawOrder {
		w := weights[t]
		if w <= 0 {
			continue
		}
		acc += w
		if r < acc {
			return t, nil
		}
		last = t
	}
	// r == total after float accumulation; settle on the last positive tier
	return last, nil
}
