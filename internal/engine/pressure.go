package engine

import (
	"math"
	"time"
)

// Pressure tier boundaries on the pressure index.
const (
	pressureRelaxedMax = 0.8 // index <= this => P0
	pressureOnPaceMax  = 1.2 // index <= this => P1, above => P2
)

// TimeProgress returns elapsed/duration for the campaign window. A missing
// window (zero start or end) yields the neutral 0.5. Before the window it is
// 0; past the end it keeps growing beyond 1 so overruns stay visible.
// Capping to 1 happens only inside PressureIndex.
func TimeProgress(now, start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0.5
	}
	if now.Before(start) {
		return 0
	}
	return now.Sub(start).Seconds() / end.Sub(start).Seconds()
}

// PressureIndex relates consumption progress to time progress.
//   - nothing elapsed, nothing spent: 0.5 (no information)
//   - nothing elapsed, already spending: 2.0 (maximal pressure)
//   - elapsed but nothing spent: 0 (no pressure)
//   - otherwise consumption / min(time, 1)
//
// A NaN on either input propagates so classification can degrade.
func PressureIndex(consumptionProgress, timeProgress float64) float64 {
	if math.IsNaN(consumptionProgress) || math.IsNaN(timeProgress) {
		return math.NaN()
	}
	if consumptionProgress < 0 {
		consumptionProgress = 0
	}
	if timeProgress <= 0 {
		if consumptionProgress == 0 {
			return 0.5
		}
		return 2.0
	}
	if consumptionProgress == 0 {
		return 0
	}
	return consumptionProgress / math.Min(timeProgress, 1.0)
}

// PressureClass is the classification result with the index it came from.
type PressureClass struct {
	Tier     PressureTier
	Index    float64
	Degraded bool
	Note     string
}

// ClassifyPressure maps an index to P0..P2. NaN resolves to the neutral P1
// rather than failing the draw.
func ClassifyPressure(index float64) PressureClass {
	if math.IsNaN(index) {
		return PressureClass{Tier: PressureP1, Index: index, Degraded: true, Note: "pressure index is not a number"}
	}
	switch {
	case index <= pressureRelaxedMax:
		return PressureClass{Tier: PressureP0, Index: index}
	case index <= pressureOnPaceMax:
		return PressureClass{Tier: PressureP1, Index: index}
	default:
		return PressureClass{Tier: PressureP2, Index: index}
	}
}

// pressureAdjust holds the per-tier weight multipliers for each pressure
// tier. Only high and fallback move; mid and low track the base weights.
var pressureAdjust = map[PressureTier]map[Tier]float64{
	PressureP0: {TierHigh: 1.25, TierMid: 1.0, TierLow: 1.0, TierFallback: 0.85},
	PressureP1: {TierHigh: 1.0, TierMid: 1.0, TierLow: 1.0, TierFallback: 1.0},
	PressureP2: {TierHigh: 0.6, TierMid: 1.0, TierLow: 1.0, TierFallback: 1.3},
}

// WeightAdjustment returns the multiplier set for a pressure tier. Unknown
// tiers get the identity set.
func WeightAdjustment(tier PressureTier) map[Tier]float64 {
	src, ok := pressureAdjust[tier]
	if !ok {
		src = pressureAdjust[PressureP1]
	}
	out := make(map[Tier]float64, len(src))
	for t, m := range src {
		out[t] = m
	}
	return out
}
