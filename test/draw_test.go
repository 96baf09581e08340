// Package test runs the whole stack end to end: YAML campaign files, the
// rollout gate, the sqlite-backed store and the draw service, with nothing
// stubbed out.
package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xtding233/lottery-engine/internal/campaign"
	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/lottery"
	"github.com/xtding233/lottery-engine/internal/rollout"
	"github.com/xtding233/lottery-engine/internal/store/sqlstore"
)

var ctx = context.Background()

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newStack assembles the real service: config files on disk, a sqlite store
// in a temp dir, the loader and the gate reading what the files say.
func newStack(t *testing.T, id, defaults, overlay, roll string, rng engine.RandomSource) *lottery.Service {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	writeFile(t, filepath.Join(cfgDir, "default.yaml"), defaults)
	if overlay != "" {
		writeFile(t, filepath.Join(cfgDir, "campaigns", id+".yaml"), overlay)
	}
	rollPath := filepath.Join(cfgDir, "rollout.yaml")
	if roll != "" {
		writeFile(t, rollPath, roll)
	}
	rcfg, err := rollout.LoadFile(rollPath)
	if err != nil {
		t.Fatal(err)
	}
	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(dir, "it.db"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return lottery.New(db, campaign.NewLoader(cfgDir), rollout.New(rcfg), rng, zerolog.Nop())
}

func hasMechanism(ms []engine.Mechanism, typ string) bool {
	for _, m := range ms {
		if m.Type == typ {
			return true
		}
	}
	return false
}

const springDefaults = `
cost:
  points_per_draw: 100
  bundle_size: 10
  bundle_points: 950
`

const springOverlay = `
name: Spring Raffle
prizes:
  - { id: gem, name: Gem, tier: high, cost: 400, weight: 2, stock: 2 }
  - { id: mug, name: Mug, tier: mid, cost: 120, weight: 5, stock: 50 }
  - { id: pin, name: Pin, tier: low, cost: 20, weight: 10, stock: -1 }
`

func TestBatchDrawEndToEnd(t *testing.T) {
	svc := newStack(t, "spring", springDefaults, springOverlay, "", engine.NewSeededRNG(7))

	if err := svc.OpenCampaign(ctx, "spring", "Spring Raffle", 5000, "ops"); err != nil {
		t.Fatal(err)
	}
	if err := svc.GrantPoints(ctx, "ida", 2000, "ops"); err != nil {
		t.Fatal(err)
	}

	res, err := svc.DrawBatch(ctx, "spring", "ida", "req-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Replayed {
		t.Fatal("fresh request marked replayed")
	}
	if len(res.Outcomes) != 10 {
		t.Fatalf("got %d outcomes, want 10", len(res.Outcomes))
	}
	if res.PointsSpent != 950 {
		t.Fatalf("points spent = %d, want bundle price 950", res.PointsSpent)
	}

	var spent, empties int64
	var gems int
	for i, o := range res.Outcomes {
		if o.Seq != i+1 {
			t.Fatalf("outcome %d has seq %d", i, o.Seq)
		}
		if o.Empty() {
			empties++
			if o.PrizeID != "" || o.Cost != 0 {
				t.Fatalf("empty outcome carries a prize: %+v", o)
			}
			continue
		}
		if o.PrizeID == "" || o.PrizeName == "" || o.Cost <= 0 {
			t.Fatalf("win without a prize: %+v", o)
		}
		spent += o.Cost
		if o.PrizeID == "gem" {
			gems++
		}
	}
	if spent != res.BudgetSpent {
		t.Fatalf("outcome costs sum to %d, result says %d", spent, res.BudgetSpent)
	}

	st, err := svc.Status(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if st.Campaign.EffectiveBudget != 5000-res.BudgetSpent {
		t.Errorf("budget = %d, want %d", st.Campaign.EffectiveBudget, 5000-res.BudgetSpent)
	}
	if st.Stats.DrawCount != 10 || st.Stats.EmptyCount != empties {
		t.Errorf("stats = %d/%d, want 10/%d", st.Stats.DrawCount, st.Stats.EmptyCount, empties)
	}
	for _, p := range st.Prizes {
		if p.ID == "gem" && p.Stock != 2-gems {
			t.Errorf("gem stock = %d after %d grants", p.Stock, gems)
		}
		if p.ID == "pin" && p.Stock != -1 {
			t.Errorf("unlimited stock must stay -1, got %d", p.Stock)
		}
	}

	us, err := svc.UserStatus(ctx, "spring", "ida")
	if err != nil {
		t.Fatal(err)
	}
	if us.User.Points != 2000-950 {
		t.Errorf("points = %d, want 1050", us.User.Points)
	}

	replay, err := svc.DrawBatch(ctx, "spring", "ida", "req-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !replay.Replayed {
		t.Fatal("second submit of req-1 must replay")
	}
	if len(replay.Outcomes) != 10 || replay.PointsSpent != 950 || replay.BudgetSpent != res.BudgetSpent {
		t.Fatalf("replay diverges: %+v", replay)
	}
	for i := range replay.Outcomes {
		if replay.Outcomes[i].Tier != res.Outcomes[i].Tier || replay.Outcomes[i].PrizeID != res.Outcomes[i].PrizeID {
			t.Fatalf("replay outcome %d = %+v, want %+v", i, replay.Outcomes[i], res.Outcomes[i])
		}
	}

	// the replay charged nothing
	us, err = svc.UserStatus(ctx, "spring", "ida")
	if err != nil {
		t.Fatal(err)
	}
	if us.User.Points != 2000-950 {
		t.Errorf("replay changed the balance to %d", us.User.Points)
	}
	st, err = svc.Status(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if st.Stats.DrawCount != 10 {
		t.Errorf("replay inflated stats to %d draws", st.Stats.DrawCount)
	}
}

func TestForcedWinAndAuditEndToEnd(t *testing.T) {
	svc := newStack(t, "spring", springDefaults, springOverlay, "", engine.NewSeededRNG(11))

	if err := svc.OpenCampaign(ctx, "spring", "Spring Raffle", 5000, "ops"); err != nil {
		t.Fatal(err)
	}
	if err := svc.GrantPoints(ctx, "bo", 500, "ops"); err != nil {
		t.Fatal(err)
	}
	if err := svc.ForceWin(ctx, "spring", "bo", engine.TierHigh, "ops"); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Draw(ctx, "spring", "bo", "req-f")
	if err != nil {
		t.Fatal(err)
	}
	o := res.Outcomes[0]
	if o.Tier != engine.TierHigh || o.PrizeID != "gem" {
		t.Fatalf("forced draw = %+v, want the high-tier gem", o)
	}
	if !hasMechanism(o.Mechanisms, engine.MechanismAdminOverride) {
		t.Fatalf("override left no trace: %+v", o.Mechanisms)
	}

	trail, err := svc.Audit(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if len(trail) != 2 {
		t.Fatalf("trail = %d entries, want campaign_open and force_win", len(trail))
	}
	if trail[0].Action != "campaign_open" || trail[1].Action != "force_win" {
		t.Errorf("trail order = %s, %s", trail[0].Action, trail[1].Action)
	}
	for i, rec := range trail {
		if rec.ID == "" {
			t.Errorf("trail[%d] has no id", i)
		}
	}
}
