package prize

// CostModel defines what a draw costs in user points. A bundle is the
// discounted multi-draw purchase (the classic ten-draw).
type CostModel struct {
	PointsPerDraw int64 `yaml:"points_per_draw"`
	BundleSize    int   `yaml:"bundle_size"`   // 0 disables bundle pricing
	BundlePoints  int64 `yaml:"bundle_points"` // 0 means BundleSize * PointsPerDraw
}

// DefaultCostModel is 100 points a draw, ten-draw bundle at 950.
func DefaultCostModel() CostModel {
	return CostModel{PointsPerDraw: 100, BundleSize: 10, BundlePoints: 950}
}

func (m CostModel) bundle() (size int, points int64, ok bool) {
	if m.BundleSize <= 1 {
		return 0, 0, false
	}
	points = m.BundlePoints
	if points <= 0 {
		points = int64(m.BundleSize) * m.PointsPerDraw
	}
	return m.BundleSize, points, true
}

// PointsForDraws returns the charge for n draws: full bundles at the bundle
// price, the remainder at the single price.
func (m CostModel) PointsForDraws(n int) int64 {
	if n <= 0 {
		return 0
	}
	size, points, ok := m.bundle()
	if ok && n >= size {
		bundles := int64(n / size)
		rem := int64(n % size)
		return bundles*points + rem*m.PointsPerDraw
	}
	return int64(n) * m.PointsPerDraw
}
