package engine

import (
	"errors"
	"testing"
)

// seqRNG replays a fixed value sequence, cycling at the end.
type seqRNG struct {
	vals []float64
	i    int
}

func (s *seqRNG) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestDrawTierBoundaries(t *testing.T) {
	weights := DefaultBaseWeights() // 5/15/30/50, cumulative 5, 20, 50, 100
	cases := []struct {
		v    float64
		want Tier
	}{
		{0, TierHigh},
		{0.0499, TierHigh},
		{0.05, TierMid},
		{0.1999, TierMid},
		{0.2, TierLow},
		{0.4999, TierLow},
		{0.5, TierFallback},
		{0.9999, TierFallback},
	}
	for _, c := range cases {
		got, err := DrawTier(weights, &seqRNG{vals: []float64{c.v}})
		if err != nil {
			t.Fatalf("v=%v: %v", c.v, err)
		}
		if got != c.want {
			t.Fatalf("v=%v: got %s, want %s", c.v, got, c.want)
		}
	}
}

func TestDrawTierSingleWeight(t *testing.T) {
	weights := TierWeights{TierFallback: 1}
	for _, v := range []float64{0, 0.3, 0.9999} {
		got, err := DrawTier(weights, &seqRNG{vals: []float64{v}})
		if err != nil || got != TierFallback {
			t.Fatalf("v=%v: got %s, %v", v, got, err)
		}
	}
}

func TestDrawTierRejectsBadWeights(t *testing.T) {
	nan := 0.0
	nan /= nan
	cases := []TierWeights{
		{TierHigh: nan, TierFallback: 50},
		{TierHigh: -5, TierFallback: 50},
	}
	for i, w := range cases {
		if _, err := DrawTier(w, &seqRNG{vals: []float64{0.5}}); !errors.Is(err, ErrInvalidWeights) {
			t.Fatalf("case %d: want ErrInvalidWeights, got %v", i, err)
		}
	}
	if _, err := DrawTier(TierWeights{}, &seqRNG{vals: []float64{0.5}}); !errors.Is(err, ErrNoPositiveWeight) {
		t.Fatalf("empty weights: want ErrNoPositiveWeight, got %v", err)
	}
	if _, err := DrawTier(TierWeights{TierHigh: 0, TierMid: 0}, &seqRNG{vals: []float64{0.5}}); !errors.Is(err, ErrNoPositiveWeight) {
		t.Fatalf("zero weights: want ErrNoPositiveWeight, got %v", err)
	}
}

func TestDrawTierDistribution(t *testing.T) {
	weights := DefaultBaseWeights()
	rng := NewSeededRNG(1)
	const n = 200000
	counts := map[Tier]int{}
	for i := 0; i < n; i++ {
		tier, err := DrawTier(weights, rng)
		if err != nil {
			t.Fatal(err)
		}
		counts[tier]++
	}
	expected := map[Tier]float64{TierHigh: 0.05, TierMid: 0.15, TierLow: 0.30, TierFallback: 0.50}
	for tier, p := range expected {
		got := float64(counts[tier]) / n
		if got < p-0.015 || got > p+0.015 {
			t.Fatalf("%s: observed %.4f, expected %.2f", tier, got, p)
		}
	}
}
