package lottery

import (
	"errors"
	"testing"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/store"
	"github.com/xtding233/lottery-engine/internal/store/memory"
)

func hasAction(recs []store.AuditRecord, action string) bool {
	for _, r := range recs {
		if r.Action == action {
			return true
		}
	}
	return false
}

func TestOpenCampaign(t *testing.T) {
	db := memory.NewStore()
	svc := newService(db, testParams(engine.TierWeights{engine.TierLow: 1}), nil)

	if err := svc.OpenCampaign(ctx, "summer", "Summer", 5000, "ops"); err != nil {
		t.Fatalf("OpenCampaign: %v", err)
	}
	st, err := svc.Status(ctx, "summer")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Campaign.InitialBudget != 5000 || st.Campaign.EffectiveBudget != 5000 {
		t.Fatalf("campaign = %+v, want 5000/5000", st.Campaign)
	}
	audit, err := svc.Audit(ctx, "summer")
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !hasAction(audit, "campaign_open") {
		t.Fatalf("audit = %+v, want campaign_open entry", audit)
	}

	if err := svc.OpenCampaign(ctx, "summer", "Summer", 5000, "ops"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("reopen = %v, want ErrConflict", err)
	}
	if err := svc.OpenCampaign(ctx, "winter", "Winter", 0, "ops"); err == nil {
		t.Fatal("zero budget accepted")
	}
	if err := svc.OpenCampaign(ctx, "", "Anon", 100, "ops"); err == nil {
		t.Fatal("empty campaign id accepted")
	}
}

func TestTopUpBudget(t *testing.T) {
	db := memory.NewStore()
	svc := newService(db, testParams(engine.TierWeights{engine.TierLow: 1}), nil)
	if err := svc.OpenCampaign(ctx, "summer", "Summer", 1000, "ops"); err != nil {
		t.Fatalf("OpenCampaign: %v", err)
	}

	if err := svc.TopUpBudget(ctx, "summer", 500, "ops"); err != nil {
		t.Fatalf("TopUpBudget: %v", err)
	}
	st, err := svc.Status(ctx, "summer")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Campaign.EffectiveBudget != 1500 {
		t.Fatalf("effective = %d, want 1500", st.Campaign.EffectiveBudget)
	}
	if st.Campaign.InitialBudget != 1000 {
		t.Fatalf("initial = %d, want unchanged 1000", st.Campaign.InitialBudget)
	}
	if err := svc.TopUpBudget(ctx, "summer", -50, "ops"); err == nil {
		t.Fatal("negative top-up accepted")
	}
	audit, err := svc.Audit(ctx, "summer")
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !hasAction(audit, "budget_topup") {
		t.Fatalf("audit = %+v, want budget_topup entry", audit)
	}
}

func TestGrantPoints(t *testing.T) {
	db := memory.NewStore()
	svc := newService(db, testParams(engine.TierWeights{engine.TierLow: 1}), nil)

	if err := svc.GrantPoints(ctx, "bob", 300, "ops"); err != nil {
		t.Fatalf("GrantPoints: %v", err)
	}
	if got := userPoints(t, db, "bob"); got != 300 {
		t.Fatalf("points = %d, want 300", got)
	}
	if err := svc.GrantPoints(ctx, "bob", -500, "ops"); !errors.Is(err, store.ErrInsufficientPoints) {
		t.Fatalf("overdraw = %v, want ErrInsufficientPoints", err)
	}
	if err := svc.GrantPoints(ctx, "bob", -200, "ops"); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := userPoints(t, db, "bob"); got != 100 {
		t.Fatalf("points = %d, want 100", got)
	}
	if err := svc.GrantPoints(ctx, "", 10, "ops"); err == nil {
		t.Fatal("empty user id accepted")
	}
}

func TestSettingValidation(t *testing.T) {
	db := memory.NewStore()
	seed(t, db, 2000, 500)
	svc := newService(db, testParams(engine.TierWeights{engine.TierLow: 1}), nil)

	if err := svc.ForceWin(ctx, "summer", "alice", engine.Tier("epic"), "ops"); err == nil {
		t.Fatal("invalid tier accepted")
	}
	if err := svc.ForceWin(ctx, "summer", "alice", engine.TierFallback, "ops"); err == nil {
		t.Fatal("fallback as forced win accepted")
	}
	if err := svc.ForceWin(ctx, "ghost", "alice", "", "ops"); !errors.Is(err, store.ErrCampaignNotFound) {
		t.Fatalf("ghost campaign = %v, want ErrCampaignNotFound", err)
	}
	if err := svc.AdjustProbability(ctx, "summer", "alice", "nonsense", "ops"); err == nil {
		t.Fatal("unparseable adjustment accepted")
	}
	if err := svc.QueuePrize(ctx, "summer", "alice", "unobtainium", "ops"); err == nil {
		t.Fatal("prize outside the catalog accepted")
	}

	if err := svc.ForceWin(ctx, "summer", "alice", "", "ops"); err != nil {
		t.Fatalf("ForceWin: %v", err)
	}
	if err := svc.ForceWin(ctx, "summer", "alice", "", "ops"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second pending force_win = %v, want ErrConflict", err)
	}
}

func TestClearUserSettings(t *testing.T) {
	db := memory.NewStore()
	seed(t, db, 2000, 500)
	svc := newService(db, testParams(engine.TierWeights{engine.TierLow: 1}), nil)

	if err := svc.ForceWin(ctx, "summer", "alice", "", "ops"); err != nil {
		t.Fatalf("ForceWin: %v", err)
	}
	if err := svc.QueuePrize(ctx, "summer", "alice", "voucher", "ops"); err != nil {
		t.Fatalf("QueuePrize: %v", err)
	}
	n, err := svc.ClearUserSettings(ctx, "summer", "alice", "ops")
	if err != nil {
		t.Fatalf("ClearUserSettings: %v", err)
	}
	if n != 2 {
		t.Fatalf("cleared = %d, want 2", n)
	}
	us, err := svc.UserStatus(ctx, "summer", "alice")
	if err != nil {
		t.Fatalf("UserStatus: %v", err)
	}
	if len(us.Pending) != 0 {
		t.Fatalf("pending = %+v, want none", us.Pending)
	}
	n, err = svc.ClearUserSettings(ctx, "summer", "alice", "ops")
	if err != nil || n != 0 {
		t.Fatalf("second clear = %d, %v, want 0, nil", n, err)
	}
	audit, err := svc.Audit(ctx, "summer")
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !hasAction(audit, "settings_clear") {
		t.Fatalf("audit = %+v, want settings_clear entry", audit)
	}
	if !hasAction(audit, "force_win") || !hasAction(audit, "queued_prize") {
		t.Fatalf("audit = %+v, want entries for queued overrides", audit)
	}
}

func TestStatusWindow(t *testing.T) {
	db := memory.NewStore()
	seed(t, db, 2000, 500)
	p := testParams(engine.TierWeights{engine.TierLow: 1})
	p.Start = testClock.Add(-48 * time.Hour)
	p.End = testClock.Add(-24 * time.Hour)
	svc := newService(db, p, nil)

	st, err := svc.Status(ctx, "summer")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Open {
		t.Fatal("closed campaign reported open")
	}
	if !st.Start.Equal(p.Start) || !st.End.Equal(p.End) {
		t.Fatalf("window = %v..%v, want %v..%v", st.Start, st.End, p.Start, p.End)
	}
	if st.Tuning.AntiEmptyThreshold != engine.DefaultAntiEmptyThreshold {
		t.Fatalf("tuning threshold = %d, want default", st.Tuning.AntiEmptyThreshold)
	}
	if len(st.Prizes) != 3 {
		t.Fatalf("prizes = %d, want 3", len(st.Prizes))
	}

	svc.now = func() time.Time { return p.Start.Add(time.Hour) }
	st, err = svc.Status(ctx, "summer")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Open {
		t.Fatal("in-window campaign reported closed")
	}
}
