package campaign

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const defaultYAML = `name: Shared defaults
weights:
  high: 5
  mid: 15
  low: 30
  fallback: 50
pity:
  hard: 10
cost:
  points_per_draw: 100
  bundle_size: 10
  bundle_points: 950
`

const summerYAML = `name: Summer festival
weights:
  high: 8
pity:
  hard: 12
window:
  start: 2026-06-01T00:00:00Z
  end: 2026-08-31T00:00:00Z
prizes:
  - id: grand
    name: Grand prize
    tier: high
    cost: 1000
    weight: 1
    stock: 3
  - id: small
    name: Small prize
    tier: low
    cost: 50
    weight: 20
    stock: -1
`

func TestLoadOverlayWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), defaultYAML)
	writeFile(t, filepath.Join(dir, "campaigns", "summer.yaml"), summerYAML)

	raw, err := NewLoader(dir).Load("summer")
	if err != nil {
		t.Fatal(err)
	}

	if raw.Name != "Summer festival" {
		t.Errorf("name = %q, overlay should win", raw.Name)
	}
	if raw.Weights == nil || raw.Weights.High == nil || *raw.Weights.High != 8 {
		t.Error("overlay weights.high not applied")
	}
	if raw.Weights.Mid == nil || *raw.Weights.Mid != 15 {
		t.Error("default weights.mid should survive the merge")
	}
	if raw.Pity == nil || raw.Pity.Hard == nil || *raw.Pity.Hard != 12 {
		t.Error("overlay pity.hard must override the default")
	}
	if raw.Cost == nil || raw.Cost.PointsPerDraw == nil || *raw.Cost.PointsPerDraw != 100 {
		t.Error("default cost section should survive")
	}
	if len(raw.Prizes) != 2 {
		t.Errorf("prizes = %d, want 2 from the overlay", len(raw.Prizes))
	}
}

func TestLoadMissingOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), defaultYAML)

	raw, err := NewLoader(dir).Load("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if raw.Weights == nil || raw.Weights.High == nil || *raw.Weights.High != 5 {
		t.Error("defaults should apply unchanged when the overlay is missing")
	}
}

func TestLoadEmptyDir(t *testing.T) {
	l := NewLoader(t.TempDir())

	p, err := l.Resolved("anything")
	if err != nil {
		t.Fatal(err)
	}
	if p.Engine.Budget.Low != 100 || p.Engine.Pity.HardStreak != 10 {
		t.Errorf("built-in defaults expected, got budget.low=%v hard=%d",
			p.Engine.Budget.Low, p.Engine.Pity.HardStreak)
	}
	if p.Cost.PointsPerDraw != 100 || p.Cost.BundleSize != 10 {
		t.Errorf("default cost model expected, got %+v", p.Cost)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "campaigns", "broken.yaml"), "weights: [\n")

	if _, err := NewLoader(dir).Load("broken"); err == nil {
		t.Fatal("malformed overlay must fail the load")
	}
}

func TestLoaderCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaigns", "summer.yaml")
	writeFile(t, path, summerYAML)

	l := NewLoader(dir)
	raw, err := l.Load("summer")
	if err != nil {
		t.Fatal(err)
	}
	if *raw.Weights.High != 8 {
		t.Fatalf("weights.high = %v, want 8", *raw.Weights.High)
	}

	writeFile(t, path, strings.Replace(summerYAML, "high: 8", "high: 9", 1))

	raw, err = l.Load("summer")
	if err != nil {
		t.Fatal(err)
	}
	if *raw.Weights.High != 8 {
		t.Error("cached value expected before Invalidate")
	}

	l.Invalidate()
	raw, err = l.Load("summer")
	if err != nil {
		t.Fatal(err)
	}
	if *raw.Weights.High != 9 {
		t.Error("fresh value expected after Invalidate")
	}
}

func TestResolvedFull(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.yaml"), defaultYAML)
	writeFile(t, filepath.Join(dir, "campaigns", "summer.yaml"), summerYAML)

	p, err := NewLoader(dir).Resolved("summer")
	if err != nil {
		t.Fatal(err)
	}

	if p.ID != "summer" || p.Name != "Summer festival" {
		t.Errorf("identity = %q/%q", p.ID, p.Name)
	}
	if p.Engine.BaseWeights[engine.TierHigh] != 8 || p.Engine.BaseWeights[engine.TierMid] != 15 {
		t.Errorf("merged weights = %v", p.Engine.BaseWeights)
	}
	if p.Engine.Pity.HardStreak != 12 {
		t.Errorf("hard pity = %d, want 12", p.Engine.Pity.HardStreak)
	}
	want := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(want) {
		t.Errorf("window start = %v, want %v", p.Start, want)
	}
	if len(p.Catalog.Prizes) != 2 {
		t.Errorf("catalog size = %d, want 2", len(p.Catalog.Prizes))
	}
}
