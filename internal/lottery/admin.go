package lottery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/prize"
	"github.com/xtding233/lottery-engine/internal/store"
)

// OpenCampaign creates the budget-bearing campaign row. Parameters and the
// prize catalog come from config; only the budget pool is stored.
func (s *Service) OpenCampaign(ctx context.Context, campaignID, name string, budget int64, actor string) error {
	if campaignID == "" {
		return errors.New("campaign id must not be empty")
	}
	if budget <= 0 {
		return fmt.Errorf("initial budget must be > 0, got %d", budget)
	}
	if _, err := s.params.Resolved(campaignID); err != nil {
		return fmt.Errorf("resolve campaign %s: %w", campaignID, err)
	}
	now := s.now().UTC()
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		c := store.Campaign{
			ID:              campaignID,
			Name:            name,
			InitialBudget:   budget,
			EffectiveBudget: budget,
			CreatedAt:       now,
		}
		if err := s.db.CreateCampaign(ctx, tx, c); err != nil {
			return err
		}
		return s.db.AppendAudit(ctx, tx, store.AuditRecord{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			Actor:      actor,
			Action:     "campaign_open",
			Detail:     fmt.Sprintf("budget %d", budget),
			RefKey:     campaignID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("campaign", campaignID).Int64("budget", budget).Msg("campaign opened")
	return nil
}

// TopUpBudget raises the effective budget. The initial pool is untouched,
// so consumption progress keeps reading against the original plan.
func (s *Service) TopUpBudget(ctx context.Context, campaignID string, amount int64, actor string) error {
	now := s.now().UTC()
	return s.db.RunInTx(ctx, func(tx store.Tx) error {
		if err := s.db.TopUpBudget(ctx, tx, campaignID, amount); err != nil {
			return err
		}
		return s.db.AppendAudit(ctx, tx, store.AuditRecord{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			Actor:      actor,
			Action:     "budget_topup",
			Detail:     fmt.Sprintf("amount %d", amount),
			RefKey:     campaignID,
			CreatedAt:  now,
		})
	})
}

// GrantPoints credits (or with a negative delta debits) a user's balance,
// creating the account on first contact. Debits fail with
// ErrInsufficientPoints instead of going negative.
func (s *Service) GrantPoints(ctx context.Context, userID string, delta int64, actor string) error {
	if userID == "" {
		return errors.New("user id must not be empty")
	}
	now := s.now().UTC()
	return s.db.RunInTx(ctx, func(tx store.Tx) error {
		if err := s.db.EnsureUser(ctx, tx, userID, 0); err != nil {
			return err
		}
		if err := s.db.AdjustPoints(ctx, tx, userID, delta); err != nil {
			return err
		}
		return s.db.AppendAudit(ctx, tx, store.AuditRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Actor:     actor,
			Action:    "points_adjust",
			Detail:    fmt.Sprintf("delta %d", delta),
			RefKey:    userID,
			CreatedAt: now,
		})
	})
}

// ForceWin queues a forced win for the user's next draw. An empty tier
// defaults to high; affordability and stock can still degrade the grant.
func (s *Service) ForceWin(ctx context.Context, campaignID, userID string, tier engine.Tier, actor string) error {
	if tier == "" {
		tier = engine.TierHigh
	}
	if !tier.Valid() || tier.Empty() {
		return fmt.Errorf("forced tier must be high, mid or low, got %q", tier)
	}
	return s.putSetting(ctx, store.UserSetting{
		CampaignID: campaignID,
		UserID:     userID,
		Kind:       store.SettingForceWin,
		Value:      string(tier),
		Actor:      actor,
	})
}

// ForceLose queues a forced consolation outcome for the user's next draw.
// It outranks a pending forced win.
func (s *Service) ForceLose(ctx context.Context, campaignID, userID, actor string) error {
	return s.putSetting(ctx, store.UserSetting{
		CampaignID: campaignID,
		UserID:     userID,
		Kind:       store.SettingForceLose,
		Actor:      actor,
	})
}

// AdjustProbability queues per-tier weight multipliers for the user's next
// draw. adjust uses "tier:multiplier" pairs, comma separated.
func (s *Service) AdjustProbability(ctx context.Context, campaignID, userID, adjust, actor string) error {
	if parseWeightAdjust(adjust) == nil {
		return fmt.Errorf("adjust %q holds no valid tier:multiplier pair", adjust)
	}
	return s.putSetting(ctx, store.UserSetting{
		CampaignID: campaignID,
		UserID:     userID,
		Kind:       store.SettingProbability,
		Value:      adjust,
		Actor:      actor,
	})
}

// QueuePrize queues a specific catalog prize for the user's next draw. The
// grant still requires stock and budget at draw time.
func (s *Service) QueuePrize(ctx context.Context, campaignID, userID, prizeID, actor string) error {
	params, err := s.params.Resolved(campaignID)
	if err != nil {
		return fmt.Errorf("resolve campaign %s: %w", campaignID, err)
	}
	if _, ok := prizeByID(params.Catalog, prizeID); !ok {
		return fmt.Errorf("prize %q is not in the campaign catalog", prizeID)
	}
	return s.putSetting(ctx, store.UserSetting{
		CampaignID: campaignID,
		UserID:     userID,
		Kind:       store.SettingQueuedPrize,
		Value:      prizeID,
		Actor:      actor,
	})
}

// ClearUserSettings drops every pending override for the user and reports
// how many were dropped.
func (s *Service) ClearUserSettings(ctx context.Context, campaignID, userID, actor string) (int, error) {
	now := s.now().UTC()
	var n int
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		n, err = s.db.ClearSettings(ctx, tx, campaignID, userID)
		if err != nil || n == 0 {
			return err
		}
		return s.db.AppendAudit(ctx, tx, store.AuditRecord{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			UserID:     userID,
			Actor:      actor,
			Action:     "settings_clear",
			Detail:     fmt.Sprintf("dropped %d", n),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// putSetting stores one override and its audit entry in one transaction.
// The campaign row is read first, so queuing serializes behind draws.
func (s *Service) putSetting(ctx context.Context, st store.UserSetting) error {
	if st.UserID == "" {
		return errors.New("user id must not be empty")
	}
	st.CreatedAt = s.now().UTC()
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		if _, err := s.db.GetCampaign(ctx, tx, st.CampaignID); err != nil {
			return err
		}
		if err := s.db.PutSetting(ctx, tx, st); err != nil {
			return err
		}
		return s.db.AppendAudit(ctx, tx, store.AuditRecord{
			ID:         uuid.NewString(),
			CampaignID: st.CampaignID,
			UserID:     st.UserID,
			Actor:      st.Actor,
			Action:     string(st.Kind),
			Detail:     st.Value,
			RefKey:     st.Key(),
			CreatedAt:  st.CreatedAt,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("campaign", st.CampaignID).Str("user", st.UserID).
		Str("kind", string(st.Kind)).Str("actor", st.Actor).Msg("override queued")
	return nil
}

// CampaignStatus is the operator view of one campaign: stored budget
// state, the live tuning, outcome aggregates and effective prize stock.
type CampaignStatus struct {
	Campaign store.Campaign
	Start    time.Time
	End      time.Time
	Open     bool
	Tuning   engine.Status
	Stats    engine.GlobalStats
	Prizes   []prize.Prize
}

// Status reports the operator view of a campaign.
func (s *Service) Status(ctx context.Context, campaignID string) (CampaignStatus, error) {
	params, err := s.params.Resolved(campaignID)
	if err != nil {
		return CampaignStatus{}, fmt.Errorf("resolve campaign %s: %w", campaignID, err)
	}
	var out CampaignStatus
	err = s.db.RunInTx(ctx, func(tx store.Tx) error {
		camp, err := s.db.GetCampaign(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		levels, err := s.db.StockLevels(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		stats, err := s.db.GetGlobalStats(ctx, tx, campaignID)
		if err != nil {
			return err
		}
		out.Campaign = camp
		out.Stats = stats
		out.Prizes = overlayCatalog(params.Catalog, levels).Prizes
		return nil
	})
	if err != nil {
		return CampaignStatus{}, err
	}
	now := s.now().UTC()
	out.Start, out.End = params.Start, params.End
	out.Open = (params.Start.IsZero() || !now.Before(params.Start)) &&
		(params.End.IsZero() || now.Before(params.End))
	out.Tuning = engine.NewOrchestrator(params.Engine, s.rng).Status()
	return out, nil
}

// UserStatus is the operator view of one user within a campaign.
type UserStatus struct {
	User       store.User
	Experience engine.ExperienceState
	Pending    []store.UserSetting
}

// UserStatus reports a user's balance, streak counters and pending
// overrides for a campaign.
func (s *Service) UserStatus(ctx context.Context, campaignID, userID string) (UserStatus, error) {
	var out UserStatus
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		u, err := s.db.GetUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		exp, err := s.db.GetExperience(ctx, tx, campaignID, userID)
		if err != nil {
			return err
		}
		pending, err := s.db.ActiveSettings(ctx, tx, campaignID, userID)
		if err != nil {
			return err
		}
		out = UserStatus{User: u, Experience: exp, Pending: pending}
		return nil
	})
	if err != nil {
		return UserStatus{}, err
	}
	return out, nil
}

// Audit returns the campaign's audit trail in insertion order.
func (s *Service) Audit(ctx context.Context, campaignID string) ([]store.AuditRecord, error) {
	var out []store.AuditRecord
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = s.db.AuditTrail(ctx, tx, campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the settled draws of one request in sequence order.
func (s *Service) History(ctx context.Context, campaignID, userID, requestID string) ([]store.DrawRecord, error) {
	var out []store.DrawRecord
	err := s.db.RunInTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = s.db.DrawsByRequest(ctx, tx, campaignID, userID, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
