package prize

import "testing"

func TestPointsForDraws(t *testing.T) {
	m := DefaultCostModel()

	tests := []struct {
		draws int
		want  int64
	}{
		{-1, 0},
		{0, 0},
		{1, 100},
		{9, 900},
		{10, 950},  // one bundle
		{11, 1050}, // bundle + single
		{25, 2400}, // two bundles + five singles
	}
	for _, tt := range tests {
		if got := m.PointsForDraws(tt.draws); got != tt.want {
			t.Errorf("PointsForDraws(%d) = %d, want %d", tt.draws, got, tt.want)
		}
	}
}

func TestPointsForDrawsNoBundle(t *testing.T) {
	m := CostModel{PointsPerDraw: 100}
	if got := m.PointsForDraws(10); got != 1000 {
		t.Errorf("without a bundle 10 draws cost %d, want 1000", got)
	}

	// a one-draw bundle is no bundle at all
	m = CostModel{PointsPerDraw: 100, BundleSize: 1, BundlePoints: 10}
	if got := m.PointsForDraws(3); got != 300 {
		t.Errorf("bundle_size 1 should be ignored, got %d", got)
	}
}

func TestPointsForDrawsUnpricedBundle(t *testing.T) {
	// bundle_points 0 falls back to size * single price
	m := CostModel{PointsPerDraw: 100, BundleSize: 10}
	if got := m.PointsForDraws(10); got != 1000 {
		t.Errorf("unpriced bundle: got %d, want 1000", got)
	}
	if got := m.PointsForDraws(12); got != 1200 {
		t.Errorf("unpriced bundle + singles: got %d, want 1200", got)
	}
}
