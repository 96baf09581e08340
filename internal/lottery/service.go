// Package lottery executes draws end to end: it loads campaign and user
// state, runs the decision pipeline, grants a prize and commits ledger,
// budget, stock and experience changes in one transaction.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtding233/lottery-engine/internal/campaign"
	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/prize"
	"github.com/xtding233/lottery-engine/internal/store"
)

// maxBatch caps the draws of one request. A batch is a single transaction;
// unbounded batches would hold the campaign lock for too long.
const maxBatch = 100

var (
	ErrCampaignClosed = errors.New("campaign closed")
	ErrBatchSize      = fmt.Errorf("draw count must be between 1 and %d", maxBatch)
)

// ParamSource resolves campaign tuning and catalog from config.
// *campaign.Loader implements it.
type ParamSource interface {
	Resolved(id string) (campaign.Params, error)
}

// FeatureGate decides which smoothing mechanisms run for a request.
// *rollout.Gate implements it.
type FeatureGate interface {
	DecideAll(userID, campaignID string) engine.FeatureDecisions
}

// Service wires the store, the config loader and the rollout gate around
// the decision pipeline. It is safe for concurrent use.
type Service struct {
	db     store.DB
	params ParamSource
	gate   FeatureGate
	rng    engine.RandomSource
	log    zerolog.Logger

	now func() time.Time // injectable clock for window tests
}

// New builds a Service. A nil gate runs every mechanism; a nil rng falls
// back to the process-wide source.
func New(db store.DB, params ParamSource, gate FeatureGate, rng engine.RandomSource, log zerolog.Logger) *Service {
	if rng == nil {
		rng = engine.DefaultRNG()
	}
	return &Service{db: db, params: params, gate: gate, rng: rng, log: log, now: time.Now}
}

// DrawOutcome is one committed draw of a request.
type DrawOutcome struct {
	Seq        int
	Tier       engine.Tier
	PrizeID    string
	PrizeName  string
	Cost       int64
	Mechanisms []engine.Mechanism
}

// Empty reports whether the draw landed on the consolation tier.
func (o DrawOutcome) Empty() bool { return o.Tier.Empty() }

// DrawResult is the committed outcome of one draw request. Replayed marks
// a request that had already been settled; its outcomes come from the
// ledger and nothing was drawn again.
type DrawResult struct {
	CampaignID  string
	UserID      string
	RequestID   string
	Outcomes    []DrawOutcome
	PointsSpent int64
	BudgetSpent int64
	Replayed    bool
}

// Draw runs a single draw. See DrawBatch.
func (s *Service) Draw(ctx context.Context, campaignID, userID, requestID string) (DrawResult, error) {
	return s.DrawBatch(ctx, campaignID, userID, requestID, 1)
}

// DrawBatch runs count draws as one atomic request keyed by requestID.
// Points are debited up front at the bundle price, every draw is appended
// to the ledger, and retrying a settled requestID returns the recorded
// outcomes unchanged.
func (s *Service) DrawBatch(ctx context.Context, campaignID, userID, requestID string, count int) (DrawResult, error) {
	if count < 1 || count > maxBatch {
		return DrawResult{}, ErrBatchSize
	}
	if campaignID == "" || userID == "" || requestID == "" {
		return DrawResult{}, errors.New("campaign, user and request ids must not be empty")
	}
	var res DrawResult
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		res, err = s.drawLocked(ctx, tx, campaignID, userID, requestID, count)
		return err
	})
	if err != nil {
		return DrawResult{}, err
	}
	if res.Replayed {
		s.log.Debug().Str("campaign", campaignID).Str("user", userID).
			Str("request", requestID).Msg("draw request replayed from ledger")
		return res, nil
	}
	s.log.Info().Str("campaign", campaignID).Str("user", userID).
		Str("request", requestID).Int("draws", count).
		Int64("points", res.PointsSpent).Int64("budget", res.BudgetSpent).
		Msg("draw committed")
	return res, nil
}

// drawLocked is the body of one draw transaction. GetCampaign locks the
// campaign row, so everything below runs serialized per campaign.
func (s *Service) drawLocked(ctx context.Context, tx store.Tx, campaignID, userID, requestID string, count int) (DrawResult, error) {
	camp, err := s.db.GetCampaign(ctx, tx, campaignID)
	if err != nil {
		return DrawResult{}, err
	}
	params, err := s.params.Resolved(campaignID)
	if err != nil {
		return DrawResult{}, fmt.Errorf("resolve campaign %s: %w", campaignID, err)
	}

	// Replay check comes before the window check: a retry of a request
	// settled inside the window must succeed after the window closes.
	prior, err := s.db.DrawsByRequest(ctx, tx, campaignID, userID, requestID)
	if err != nil {
		return DrawResult{}, err
	}
	if len(prior) > 0 {
		return replayResult(params, prior), nil
	}

	now := s.now().UTC()
	if !params.Start.IsZero() && now.Before(params.Start) {
		return DrawResult{}, fmt.Errorf("%w: opens %s", ErrCampaignClosed, params.Start.Format(time.RFC3339))
	}
	if !params.End.IsZero() && !now.Before(params.End) {
		return DrawResult{}, fmt.Errorf("%w: ended %s", ErrCampaignClosed, params.End.Format(time.RFC3339))
	}

	pointsCost := params.Cost.PointsForDraws(count)
	if pointsCost > 0 {
		if err := s.db.AdjustPoints(ctx, tx, userID, -pointsCost); err != nil {
			return DrawResult{}, err
		}
	}

	settings, err := s.db.ConsumeSettings(ctx, tx, campaignID, userID)
	if err != nil {
		return DrawResult{}, err
	}
	ov := parseOverrides(settings)

	levels, err := s.db.StockLevels(ctx, tx, campaignID)
	if err != nil {
		return DrawResult{}, err
	}
	cat := overlayCatalog(params.Catalog, levels)

	exp, err := s.db.GetExperience(ctx, tx, campaignID, userID)
	if err != nil {
		return DrawResult{}, err
	}
	stats, err := s.db.GetGlobalStats(ctx, tx, campaignID)
	if err != nil {
		return DrawResult{}, err
	}

	feats := engine.AllFeaturesEnabled()
	if s.gate != nil {
		feats = s.gate.DecideAll(userID, campaignID)
	}
	orch := engine.NewOrchestrator(params.Engine, s.rng)

	res := DrawResult{
		CampaignID: campaignID,
		UserID:     userID,
		RequestID:  requestID,
		Outcomes:   make([]DrawOutcome, 0, count),
	}
	remaining := camp.EffectiveBudget
	var empties int64

	for seq := 1; seq <= count; seq++ {
		var weights engine.TierWeights
		if seq == 1 && len(ov.adjust) > 0 {
			weights = adjustWeights(params.Engine.BaseWeights, ov.adjust)
		}
		in := engine.ComputeInput{
			UserID:              userID,
			CampaignID:          campaignID,
			EffectiveBudget:     float64(remaining),
			TimeProgress:        engine.TimeProgress(now, params.Start, params.End),
			ConsumptionProgress: consumptionProgress(camp.InitialBudget, remaining),
			BaseWeights:         weights,
			Experience:          exp,
			Global:              &stats,
			Prizes:              cat.TierView(),
			Features:            feats,
		}
		dec, err := orch.Compute(in)
		if err != nil {
			return DrawResult{}, fmt.Errorf("decide draw %d for %s: %w", seq, userID, err)
		}

		mechs := append([]engine.Mechanism(nil), dec.Applied...)
		final := dec.FinalTier
		var granted prize.Prize
		var have bool

		if seq == 1 && len(ov.adjust) > 0 {
			mechs = append(mechs, engine.Mechanism{
				Type:   engine.MechanismAdminOverride,
				Detail: "probability_adjust " + ov.adjustRaw,
			})
		}
		if seq == 1 && ov.forced {
			final = ov.force
			mechs = append(mechs, engine.Mechanism{
				Type:   engine.MechanismAdminOverride,
				Detail: "forced " + string(ov.force),
			})
		}
		if seq == 1 && ov.queued != "" && !final.Empty() {
			if p, ok := prizeByID(cat, ov.queued); ok && p.InStock() && p.Cost <= remaining {
				granted, have, final = p, true, p.Tier
				mechs = append(mechs, engine.Mechanism{
					Type:   engine.MechanismAdminOverride,
					Detail: "queued_prize " + p.ID,
				})
			} else {
				mechs = append(mechs, engine.Mechanism{
					Type:   engine.MechanismAdminOverride,
					Detail: "queued_prize " + ov.queued + " unavailable",
				})
			}
		}

		if !have && !final.Empty() {
			p, landed, ok := selectPrize(cat, final, remaining, s.rng)
			if landed != final {
				mechs = append(mechs, engine.Mechanism{
					Type:   engine.MechanismStockDegraded,
					Detail: string(final) + " to " + string(landed),
				})
			}
			granted, have, final = p, ok, landed
		}
		if final != dec.FinalTier {
			dec = dec.Revise(exp, final)
		}

		if have {
			if err := s.db.DebitBudget(ctx, tx, campaignID, granted.Cost); err != nil {
				return DrawResult{}, err
			}
			remaining -= granted.Cost
			res.BudgetSpent += granted.Cost
			if lvl, finite := takeStock(cat, granted.ID); finite {
				if err := s.db.SetStock(ctx, tx, campaignID, granted.ID, lvl); err != nil {
					return DrawResult{}, err
				}
			}
		} else {
			empties++
		}

		rec := store.DrawRecord{
			CampaignID: campaignID,
			UserID:     userID,
			RequestID:  requestID,
			Seq:        seq,
			Tier:       final,
			PrizeID:    granted.ID,
			Cost:       granted.Cost,
			Mechanisms: mechs,
			CreatedAt:  now,
		}
		if err := s.db.AppendDraw(ctx, tx, rec); err != nil {
			return DrawResult{}, err
		}
		res.Outcomes = append(res.Outcomes, DrawOutcome{
			Seq:        seq,
			Tier:       final,
			PrizeID:    granted.ID,
			PrizeName:  granted.Name,
			Cost:       granted.Cost,
			Mechanisms: mechs,
		})

		exp = dec.NextExperience
		stats.DrawCount++
		if final.Empty() {
			stats.EmptyCount++
		}
	}

	if err := s.db.PutExperience(ctx, tx, campaignID, userID, exp); err != nil {
		return DrawResult{}, err
	}
	if err := s.db.AddGlobalStats(ctx, tx, campaignID, int64(count), empties); err != nil {
		return DrawResult{}, err
	}
	res.PointsSpent = pointsCost
	return res, nil
}

// replayResult rebuilds a DrawResult from ledger records. Prize names come
// from the current catalog; a prize meanwhile removed from config keeps an
// empty name.
func replayResult(params campaign.Params, recs []store.DrawRecord) DrawResult {
	first := recs[0]
	res := DrawResult{
		CampaignID: first.CampaignID,
		UserID:     first.UserID,
		RequestID:  first.RequestID,
		Outcomes:   make([]DrawOutcome, 0, len(recs)),
		Replayed:   true,
	}
	for _, r := range recs {
		var name string
		if p, ok := prizeByID(params.Catalog, r.PrizeID); ok {
			name = p.Name
		}
		res.Outcomes = append(res.Outcomes, DrawOutcome{
			Seq:        r.Seq,
			Tier:       r.Tier,
			PrizeID:    r.PrizeID,
			PrizeName:  name,
			Cost:       r.Cost,
			Mechanisms: r.Mechanisms,
		})
		res.BudgetSpent += r.Cost
	}
	res.PointsSpent = params.Cost.PointsForDraws(len(recs))
	return res
}

// selectPrize walks down from tier until a grantable prize fits the
// remaining budget. It returns the tier it landed on; ok is false when the
// walk ran out at the consolation tier.
func selectPrize(cat prize.Catalog, tier engine.Tier, budget int64, rng engine.RandomSource) (prize.Prize, engine.Tier, bool) {
	for t := tier; ; t = t.NextLower() {
		if t.Empty() {
			return prize.Prize{}, engine.TierFallback, false
		}
		if p, ok := cat.Pick(t, float64(budget), rng); ok {
			return p, t, true
		}
	}
}

// overlayCatalog copies the configured catalog with stored stock levels
// applied. A prize without a stored row keeps its configured stock.
func overlayCatalog(c prize.Catalog, levels map[string]int) prize.Catalog {
	out := prize.Catalog{Prizes: make([]prize.Prize, len(c.Prizes))}
	copy(out.Prizes, c.Prizes)
	for i := range out.Prizes {
		if lvl, ok := levels[out.Prizes[i].ID]; ok {
			out.Prizes[i].Stock = lvl
		}
	}
	return out
}

func prizeByID(c prize.Catalog, id string) (prize.Prize, bool) {
	for _, p := range c.Prizes {
		if p.ID == id {
			return p, true
		}
	}
	return prize.Prize{}, false
}

// takeStock decrements the working copy so later draws of the batch see
// the grant. finite is false for unlimited stock, which is never stored.
func takeStock(c prize.Catalog, id string) (level int, finite bool) {
	for i := range c.Prizes {
		if c.Prizes[i].ID != id {
			continue
		}
		if c.Prizes[i].Stock < 0 {
			return -1, false
		}
		c.Prizes[i].Stock--
		return c.Prizes[i].Stock, true
	}
	return 0, false
}

// consumptionProgress is spent/initial, clamped at 0 when top-ups pushed
// the effective budget above the initial pool.
func consumptionProgress(initial, remaining int64) float64 {
	if initial <= 0 {
		return 1
	}
	spent := initial - remaining
	if spent < 0 {
		spent = 0
	}
	return float64(spent) / float64(initial)
}

// overrides is the parsed form of the consumed admin settings. They apply
// to the first draw of the request.
type overrides struct {
	force     engine.Tier
	forced    bool
	adjust    engine.TierWeights
	adjustRaw string
	queued    string
}

// parseOverrides folds consumed settings into one override set. An
// explicit force_lose outranks force_win; the settings arrive kind-sorted
// so the lose case is seen first.
func parseOverrides(settings []store.UserSetting) overrides {
	var ov overrides
	for _, st := range settings {
		switch st.Kind {
		case store.SettingForceLose:
			ov.force, ov.forced = engine.TierFallback, true
		case store.SettingForceWin:
			if ov.forced && ov.force.Empty() {
				continue
			}
			t := engine.Tier(st.Value)
			if !t.Valid() || t.Empty() {
				t = engine.TierHigh
			}
			ov.force, ov.forced = t, true
		case store.SettingProbability:
			ov.adjust = parseWeightAdjust(st.Value)
			ov.adjustRaw = st.Value
		case store.SettingQueuedPrize:
			ov.queued = st.Value
		}
	}
	return ov
}

// parseWeightAdjust reads "tier:multiplier" pairs, comma separated, e.g.
// "high:2.0,mid:1.5". Invalid pairs are dropped; nil means nothing usable.
func parseWeightAdjust(v string) engine.TierWeights {
	out := engine.TierWeights{}
	for _, part := range strings.Split(v, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			continue
		}
		t := engine.Tier(strings.TrimSpace(kv[0]))
		m, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if !t.Valid() || err != nil || m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		out[t] = m
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// adjustWeights multiplies the configured base weights per tier.
func adjustWeights(base, mult engine.TierWeights) engine.TierWeights {
	if len(base) == 0 {
		base = engine.DefaultBaseWeights()
	}
	out := base.Clone()
	for t, m := range mult {
		out[t] *= m
	}
	return out
}
