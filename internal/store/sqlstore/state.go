package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/store"
)

func (s *Store) CreateCampaign(ctx context.Context, tx store.Tx, c store.Campaign) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, initial_budget, effective_budget, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.InitialBudget, c.EffectiveBudget, created.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.NewError(store.CodeConflict, fmt.Sprintf("campaign %s already exists", c.ID), err)
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, tx store.Tx, id string) (store.Campaign, error) {
	h, err := s.handle(tx)
	if err != nil {
		return store.Campaign{}, err
	}
	var c store.Campaign
	var created int64
	err = h.tx.QueryRowContext(ctx, `
		SELECT id, name, initial_budget, effective_budget, created_at
		FROM campaigns WHERE id = $1`+s.lock(), id).
		Scan(&c.ID, &c.Name, &c.InitialBudget, &c.EffectiveBudget, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Campaign{}, store.ErrCampaignNotFound
	}
	if err != nil {
		return store.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	return c, nil
}

func (s *Store) DebitBudget(ctx context.Context, tx store.Tx, id string, amount int64) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("negative debit %d", amount)
	}
	res, err := h.tx.ExecContext(ctx, `
		UPDATE campaigns SET effective_budget = effective_budget - $1
		WHERE id = $2 AND effective_budget >= $3`,
		amount, id, amount)
	if err != nil {
		return fmt.Errorf("debit budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var have int64
		err := h.tx.QueryRowContext(ctx, `SELECT effective_budget FROM campaigns WHERE id = $1`, id).Scan(&have)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrCampaignNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("budget overdraft on %s: %d < %d", id, have, amount)
	}
	return nil
}

func (s *Store) TopUpBudget(ctx context.Context, tx store.Tx, id string, amount int64) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("top-up must be positive, got %d", amount)
	}
	res, err := h.tx.ExecContext(ctx, `
		UPDATE campaigns SET effective_budget = effective_budget + $1 WHERE id = $2`,
		amount, id)
	if err != nil {
		return fmt.Errorf("top up budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrCampaignNotFound
	}
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, tx store.Tx, id string, points int64) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO users (id, points) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`,
		id, points)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, tx store.Tx, id string) (store.User, error) {
	h, err := s.handle(tx)
	if err != nil {
		return store.User{}, err
	}
	var u store.User
	err = h.tx.QueryRowContext(ctx, `SELECT id, points FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrUserNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) AdjustPoints(ctx context.Context, tx store.Tx, id string, delta int64) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	var points int64
	err = h.tx.QueryRowContext(ctx, `SELECT points FROM users WHERE id = $1`+s.lock(), id).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("adjust points: %w", err)
	}
	if points+delta < 0 {
		return store.NewError(store.CodeInsufficientPoints,
			fmt.Sprintf("user %s holds %d points, needs %d", id, points, -delta), nil)
	}
	_, err = h.tx.ExecContext(ctx, `UPDATE users SET points = points + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("adjust points: %w", err)
	}
	return nil
}

func (s *Store) StockLevels(ctx context.Context, tx store.Tx, campaignID string) (map[string]int, error) {
	h, err := s.handle(tx)
	if err != nil {
		return nil, err
	}
	rows, err := h.tx.QueryContext(ctx, `
		SELECT prize_id, level FROM prize_stock WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var prizeID string
		var level int
		if err := rows.Scan(&prizeID, &level); err != nil {
			return nil, err
		}
		out[prizeID] = level
	}
	return out, rows.Err()
}

func (s *Store) SetStock(ctx context.Context, tx store.Tx, campaignID, prizeID string, level int) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	if level < -1 {
		return fmt.Errorf("stock level %d out of range", level)
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO prize_stock (campaign_id, prize_id, level) VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id, prize_id) DO UPDATE SET level = excluded.level`,
		campaignID, prizeID, level)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	return nil
}

func (s *Store) GetExperience(ctx context.Context, tx store.Tx, campaignID, userID string) (engine.ExperienceState, error) {
	h, err := s.handle(tx)
	if err != nil {
		return engine.ExperienceState{}, err
	}
	var exp engine.ExperienceState
	err = h.tx.QueryRowContext(ctx, `
		SELECT empty_streak, recent_high_count, anti_high_cooldown
		FROM user_experience WHERE campaign_id = $1 AND user_id = $2`+s.lock(),
		campaignID, userID).
		Scan(&exp.EmptyStreak, &exp.RecentHighCount, &exp.AntiHighCooldown)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ExperienceState{}, nil
	}
	if err != nil {
		return engine.ExperienceState{}, fmt.Errorf("get experience: %w", err)
	}
	return exp, nil
}

func (s *Store) PutExperience(ctx context.Context, tx store.Tx, campaignID, userID string, exp engine.ExperienceState) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO user_experience (campaign_id, user_id, empty_streak, recent_high_count, anti_high_cooldown)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (campaign_id, user_id) DO UPDATE SET
			empty_streak = excluded.empty_streak,
			recent_high_count = excluded.recent_high_count,
			anti_high_cooldown = excluded.anti_high_cooldown`,
		campaignID, userID, exp.EmptyStreak, exp.RecentHighCount, exp.AntiHighCooldown)
	if err != nil {
		return fmt.Errorf("put experience: %w", err)
	}
	return nil
}

func (s *Store) GetGlobalStats(ctx context.Context, tx store.Tx, campaignID string) (engine.GlobalStats, error) {
	h, err := s.handle(tx)
	if err != nil {
		return engine.GlobalStats{}, err
	}
	var g engine.GlobalStats
	err = h.tx.QueryRowContext(ctx, `
		SELECT draw_count, empty_count FROM global_stats WHERE campaign_id = $1`,
		campaignID).
		Scan(&g.DrawCount, &g.EmptyCount)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.GlobalStats{}, nil
	}
	if err != nil {
		return engine.GlobalStats{}, fmt.Errorf("get global stats: %w", err)
	}
	return g, nil
}

func (s *Store) AddGlobalStats(ctx context.Context, tx store.Tx, campaignID string, draws, empties int64) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO global_stats (campaign_id, draw_count, empty_count) VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id) DO UPDATE SET
			draw_count = global_stats.draw_count + excluded.draw_count,
			empty_count = global_stats.empty_count + excluded.empty_count`,
		campaignID, draws, empties)
	if err != nil {
		return fmt.Errorf("add global stats: %w", err)
	}
	return nil
}
