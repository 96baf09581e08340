package campaign

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/lottery-engine/internal/prize"
)

// Paths resolves the shared default file and the per-campaign overlays
// under one base directory.
type Paths struct {
	BaseDir string
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "default.yaml")
}

func (p Paths) CampaignPath(id string) string {
	return filepath.Join(p.BaseDir, "campaigns", id+".yaml")
}

// Loader reads campaign YAML and merges default <- overlay, caching merged
// results until Invalidate.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawParams // key: campaign id, "$default" for the shared file
}

func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawParams),
	}
}

// Load returns the merged raw parameters of one campaign. Both files are
// optional: a missing overlay leaves the defaults unchanged, and a missing
// default.yaml leaves the built-in engine defaults in charge.
func (l *Loader) Load(id string) (RawParams, error) {
	l.mu.RLock()
	if raw, ok := l.cache[id]; ok {
		l.mu.RUnlock()
		return raw, nil
	}
	l.mu.RUnlock()

	def, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawParams{}, fmt.Errorf("read default: %w", err)
	}
	overlay, err := readYAML(l.paths.CampaignPath(id))
	if err != nil {
		return RawParams{}, fmt.Errorf("read campaign %s: %w", id, err)
	}
	merged := mergeParams(def, overlay)

	l.mu.Lock()
	l.cache[id] = merged
	l.cache["$default"] = def
	l.mu.Unlock()

	return merged, nil
}

// Resolved loads, validates and resolves one campaign's parameters in one
// step. This is what drawing code calls.
func (l *Loader) Resolved(id string) (Params, error) {
	raw, err := l.Load(id)
	if err != nil {
		return Params{}, err
	}
	if err := raw.Validate(); err != nil {
		return Params{}, err
	}
	p, err := raw.Resolve()
	if err != nil {
		return Params{}, err
	}
	p.ID = id
	return p, nil
}

// Invalidate clears the cache. Call it when the file watcher reports a
// change under the config directory.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawParams)
}

// readYAML loads one file into RawParams. A missing file is a zero value,
// not an error.
func readYAML(path string) (RawParams, error) {
	var raw RawParams
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawParams{}, nil
		}
		return RawParams{}, err
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return RawParams{}, err
	}
	return raw, nil
}

// mergeParams overlays b onto a: wherever b sets a field it wins, lists
// replace rather than splice.
func mergeParams(a, b RawParams) RawParams {
	out := a
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	out.Weights = mergeWeights(a.Weights, b.Weights)
	out.Budget = mergeBudget(a.Budget, b.Budget)
	out.Pity = mergePity(a.Pity, b.Pity)
	out.LuckDebt = mergeLuckDebt(a.LuckDebt, b.LuckDebt)
	out.AntiEmpty = mergeAntiEmpty(a.AntiEmpty, b.AntiEmpty)
	out.AntiHigh = mergeAntiHigh(a.AntiHigh, b.AntiHigh)
	out.Window = mergeWindow(a.Window, b.Window)
	out.Cost = mergeCost(a.Cost, b.Cost)
	if len(b.Prizes) > 0 {
		out.Prizes = append([]prize.Prize(nil), b.Prizes...)
	}
	return out
}

func mergeWeights(a, b *WeightsCfg) *WeightsCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.High != nil {
		c.High = b.High
	}
	if b.Mid != nil {
		c.Mid = b.Mid
	}
	if b.Low != nil {
		c.Low = b.Low
	}
	if b.Fallback != nil {
		c.Fallback = b.Fallback
	}
	return &c
}

func mergeBudget(a, b *BudgetCfg) *BudgetCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.Low != nil {
		c.Low = b.Low
	}
	if b.Mid != nil {
		c.Mid = b.Mid
	}
	if b.High != nil {
		c.High = b.High
	}
	return &c
}

func mergePity(a, b *PityCfg) *PityCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		c.Soft = append([]SoftStep(nil), b.Soft...)
		return &c
	}
	c := *a
	if len(b.Soft) > 0 {
		c.Soft = append([]SoftStep(nil), b.Soft...)
	}
	if b.Hard != nil {
		c.Hard = b.Hard
	}
	return &c
}

func mergeLuckDebt(a, b *LuckDebtCfg) *LuckDebtCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.MinSampleSize != nil {
		c.MinSampleSize = b.MinSampleSize
	}
	if b.ExpectedEmptyRate != nil {
		c.ExpectedEmptyRate = b.ExpectedEmptyRate
	}
	if b.NoneMax != nil {
		c.NoneMax = b.NoneMax
	}
	if b.LowMax != nil {
		c.LowMax = b.LowMax
	}
	if b.MediumMax != nil {
		c.MediumMax = b.MediumMax
	}
	if b.LowMult != nil {
		c.LowMult = b.LowMult
	}
	if b.MediumMult != nil {
		c.MediumMult = b.MediumMult
	}
	if b.HighMult != nil {
		c.HighMult = b.HighMult
	}
	return &c
}

func mergeAntiEmpty(a, b *AntiEmptyCfg) *AntiEmptyCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.Threshold != nil {
		c.Threshold = b.Threshold
	}
	return &c
}

func mergeAntiHigh(a, b *AntiHighCfg) *AntiHighCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.Streak != nil {
		c.Streak = b.Streak
	}
	if b.Reduction != nil {
		c.Reduction = b.Reduction
	}
	if b.Cooldown != nil {
		c.Cooldown = b.Cooldown
	}
	return &c
}

func mergeWindow(a, b *WindowCfg) *WindowCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.Start != nil {
		c.Start = b.Start
	}
	if b.End != nil {
		c.End = b.End
	}
	return &c
}

func mergeCost(a, b *CostCfg) *CostCfg {
	switch {
	case b == nil:
		return a
	case a == nil:
		c := *b
		return &c
	}
	c := *a
	if b.PointsPerDraw != nil {
		c.PointsPerDraw = b.PointsPerDraw
	}
	if b.BundleSize != nil {
		c.BundleSize = b.BundleSize
	}
	if b.BundlePoints != nil {
		c.BundlePoints = b.BundlePoints
	}
	return &c
}
