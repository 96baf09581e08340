package engine

import (
	"math"
	"testing"
	"time"
)

func TestTimeProgress(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * 24 * time.Hour)

	if got := TimeProgress(start.Add(-time.Hour), start, end); got != 0 {
		t.Fatalf("before window: got %v want 0", got)
	}
	got := TimeProgress(start.Add(5*24*time.Hour), start, end)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midway: got %v want 0.5", got)
	}
	if got := TimeProgress(end.Add(5*24*time.Hour), start, end); got < 1.4 {
		t.Fatalf("overrun must stay uncapped above 1; got %v", got)
	}
	if got := TimeProgress(start, time.Time{}, end); got != 0.5 {
		t.Fatalf("missing start: got %v want neutral 0.5", got)
	}
	if got := TimeProgress(start, end, start); got != 0.5 {
		t.Fatalf("inverted window: got %v want neutral 0.5", got)
	}
}

func TestPressureIndexTable(t *testing.T) {
	cases := []struct {
		consumption, timeProg, want float64
	}{
		{0, 0, 0.5},
		{0.3, 0, 2.0},
		{0, 0.4, 0},
		{0.5, 0.5, 1.0},
		{0.9, 0.6, 1.5},
		{0.6, 2.0, 0.6}, // time capped at 1 for the division
	}
	for _, c := range cases {
		got := PressureIndex(c.consumption, c.timeProg)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("index(%v,%v)=%v want %v", c.consumption, c.timeProg, got, c.want)
		}
	}
	if !math.IsNaN(PressureIndex(math.NaN(), 0.5)) {
		t.Fatalf("NaN consumption must propagate")
	}
}

func TestClassifyPressureBounds(t *testing.T) {
	cases := []struct {
		index float64
		want  PressureTier
	}{
		{0, PressureP0},
		{0.8, PressureP0},
		{0.80001, PressureP1},
		{1.2, PressureP1},
		{1.20001, PressureP2},
		{5, PressureP2},
	}
	for _, c := range cases {
		if got := ClassifyPressure(c.index); got.Tier != c.want {
			t.Fatalf("index=%v: got %s want %s", c.index, got.Tier, c.want)
		}
	}
}

func TestClassifyPressureNaN(t *testing.T) {
	got := ClassifyPressure(math.NaN())
	if got.Tier != PressureP1 || !got.Degraded {
		t.Fatalf("NaN index must resolve to neutral P1 with a note; got %+v", got)
	}
}

func TestWeightAdjustmentDirections(t *testing.T) {
	p0 := WeightAdjustment(PressureP0)
	if p0[TierHigh] <= 1 || p0[TierFallback] >= 1 {
		t.Fatalf("P0 must boost high and trim fallback; got %+v", p0)
	}
	p1 := WeightAdjustment(PressureP1)
	for tier, m := range p1 {
		if m != 1 {
			t.Fatalf("P1 must be identity; %s=%v", tier, m)
		}
	}
	p2 := WeightAdjustment(PressureP2)
	if p2[TierHigh] >= 1 || p2[TierFallback] <= 1 {
		t.Fatalf("P2 must trim high and boost fallback; got %+v", p2)
	}
	unknown := WeightAdjustment(PressureTier("P9"))
	if unknown[TierHigh] != 1 {
		t.Fatalf("unknown pressure tier must behave as identity; got %+v", unknown)
	}
}
