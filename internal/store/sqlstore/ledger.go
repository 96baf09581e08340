package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/store"
)

func (s *Store) AppendDraw(ctx context.Context, tx store.Tx, rec store.DrawRecord) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	mechs, err := json.Marshal(rec.Mechanisms)
	if err != nil {
		return fmt.Errorf("encode mechanisms: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO draw_records (campaign_id, user_id, request_id, seq, tier, prize_id, cost, mechanisms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.CampaignID, rec.UserID, rec.RequestID, rec.Seq,
		string(rec.Tier), rec.PrizeID, rec.Cost, string(mechs), created.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.NewError(store.CodeDuplicateRequest,
				fmt.Sprintf("draw %s already recorded", rec.IdempotencyKey()), err)
		}
		return fmt.Errorf("append draw: %w", err)
	}
	return nil
}

func (s *Store) DrawsByRequest(ctx context.Context, tx store.Tx, campaignID, userID, requestID string) ([]store.DrawRecord, error) {
	h, err := s.handle(tx)
	if err != nil {
		return nil, err
	}
	rows, err := h.tx.QueryContext(ctx, `
		SELECT campaign_id, user_id, request_id, seq, tier, prize_id, cost, mechanisms, created_at
		FROM draw_records
		WHERE campaign_id = $1 AND user_id = $2 AND request_id = $3
		ORDER BY seq`,
		campaignID, userID, requestID)
	if err != nil {
		return nil, fmt.Errorf("draws by request: %w", err)
	}
	defer rows.Close()

	var out []store.DrawRecord
	for rows.Next() {
		var rec store.DrawRecord
		var tier, mechs string
		var created int64
		if err := rows.Scan(&rec.CampaignID, &rec.UserID, &rec.RequestID, &rec.Seq,
			&tier, &rec.PrizeID, &rec.Cost, &mechs, &created); err != nil {
			return nil, err
		}
		rec.Tier = engine.Tier(tier)
		rec.CreatedAt = time.Unix(created, 0).UTC()
		if err := json.Unmarshal([]byte(mechs), &rec.Mechanisms); err != nil {
			return nil, fmt.Errorf("decode mechanisms: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) AppendAudit(ctx context.Context, tx store.Tx, rec store.AuditRecord) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO audit_records (audit_id, campaign_id, user_id, actor, action, detail, ref_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.CampaignID, rec.UserID, rec.Actor, rec.Action, rec.Detail, rec.RefKey, created.Unix())
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (s *Store) AuditTrail(ctx context.Context, tx store.Tx, campaignID string) ([]store.AuditRecord, error) {
	h, err := s.handle(tx)
	if err != nil {
		return nil, err
	}
	rows, err := h.tx.QueryContext(ctx, `
		SELECT audit_id, campaign_id, user_id, actor, action, detail, ref_key, created_at
		FROM audit_records WHERE campaign_id = $1 ORDER BY id`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	defer rows.Close()

	var out []store.AuditRecord
	for rows.Next() {
		var rec store.AuditRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.UserID, &rec.Actor, &rec.Action,
			&rec.Detail, &rec.RefKey, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PutSetting(ctx context.Context, tx store.Tx, set store.UserSetting) error {
	h, err := s.handle(tx)
	if err != nil {
		return err
	}
	created := set.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = h.tx.ExecContext(ctx, `
		INSERT INTO user_settings (campaign_id, user_id, kind, value, actor, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		set.CampaignID, set.UserID, string(set.Kind), set.Value, set.Actor, created.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.NewError(store.CodeConflict,
				fmt.Sprintf("active setting %s already exists", set.Key()), err)
		}
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

func (s *Store) ActiveSettings(ctx context.Context, tx store.Tx, campaignID, userID string) ([]store.UserSetting, error) {
	h, err := s.handle(tx)
	if err != nil {
		return nil, err
	}
	rows, err := h.tx.QueryContext(ctx, `
		SELECT campaign_id, user_id, kind, value, actor, created_at
		FROM user_settings
		WHERE campaign_id = $1 AND user_id = $2 AND consumed = 0
		ORDER BY kind`,
		campaignID, userID)
	if err != nil {
		return nil, fmt.Errorf("active settings: %w", err)
	}
	defer rows.Close()
	return scanSettings(rows)
}

// ConsumeSettings marks every active setting consumed and returns them in
// one statement, so a setting can never apply to two draws.
func (s *Store) ConsumeSettings(ctx context.Context, tx store.Tx, campaignID, userID string) ([]store.UserSetting, error) {
	h, err := s.handle(tx)
	if err != nil {
		return nil, err
	}
	rows, err := h.tx.QueryContext(ctx, `
		UPDATE user_settings SET consumed = 1
		WHERE campaign_id = $1 AND user_id = $2 AND consumed = 0
		RETURNING campaign_id, user_id, kind, value, actor, created_at`,
		campaignID, userID)
	if err != nil {
		return nil, fmt.Errorf("consume settings: %w", err)
	}
	defer rows.Close()

	out, err := scanSettings(rows)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (s *Store) ClearSettings(ctx context.Context, tx store.Tx, campaignID, userID string) (int, error) {
	h, err := s.handle(tx)
	if err != nil {
		return 0, err
	}
	res, err := h.tx.ExecContext(ctx, `
		UPDATE user_settings SET consumed = 1
		WHERE campaign_id = $1 AND user_id = $2 AND consumed = 0`,
		campaignID, userID)
	if err != nil {
		return 0, fmt.Errorf("clear settings: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// scanSettings reads setting rows; the caller owns rows.Close.
func scanSettings(rows *sql.Rows) ([]store.UserSetting, error) {
	var out []store.UserSetting
	for rows.Next() {
		var set store.UserSetting
		var kind string
		var created int64
		if err := rows.Scan(&set.CampaignID, &set.UserID, &kind, &set.Value, &set.Actor, &created); err != nil {
			return nil, err
		}
		set.Kind = store.SettingKind(kind)
		set.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, set)
	}
	return out, rows.Err()
}
