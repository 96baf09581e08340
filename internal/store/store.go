// Package store defines the persistence contracts of the draw pipeline:
// campaign budgets, user points, prize stock, per-user experience, global
// aggregates, the draw/audit ledger and pending admin settings. Every
// mutation takes an explicit transaction handle minted by RunInTx.
package store

import (
	"context"

	"github.com/xtding233/lottery-engine/internal/engine"
)

// Tx marks a live transaction scope. Values only come out of RunInTx, and
// implementations reject handles they did not mint themselves with
// ErrNoTransaction.
type Tx interface {
	txScope()
}

// TxMarker implements the Tx marker method. Store implementations embed it
// in their transaction handles.
type TxMarker struct{}

func (TxMarker) txScope() {}

// CampaignBudgetProvider reads and mutates campaign budget state. Getting
// a campaign inside a transaction locks its row until commit; every draw
// on one campaign serializes behind that lock.
type CampaignBudgetProvider interface {
	CreateCampaign(ctx context.Context, tx Tx, c Campaign) error
	GetCampaign(ctx context.Context, tx Tx, id string) (Campaign, error)

	// DebitBudget lowers the effective budget by amount, failing on
	// overdraft. TopUpBudget is the only way a budget ever grows.
	DebitBudget(ctx context.Context, tx Tx, id string, amount int64) error
	TopUpBudget(ctx context.Context, tx Tx, id string, amount int64) error
}

// UserStore holds points balances. AdjustPoints fails with
// ErrInsufficientPoints when a negative delta would overdraw the balance.
type UserStore interface {
	EnsureUser(ctx context.Context, tx Tx, id string, points int64) error
	GetUser(ctx context.Context, tx Tx, id string) (User, error)
	AdjustPoints(ctx context.Context, tx Tx, id string, delta int64) error
}

// PrizeCatalog tracks live prize inventory. Prize definitions come from
// the campaign config files; only mutable stock lives here. A prize with
// no row is at its configured initial stock.
type PrizeCatalog interface {
	StockLevels(ctx context.Context, tx Tx, campaignID string) (map[string]int, error)
	SetStock(ctx context.Context, tx Tx, campaignID, prizeID string, level int) error
}

// UserExperienceStore persists per-user streak counters.
type UserExperienceStore interface {
	GetExperience(ctx context.Context, tx Tx, campaignID, userID string) (engine.ExperienceState, error)
	PutExperience(ctx context.Context, tx Tx, campaignID, userID string, exp engine.ExperienceState) error
}

// GlobalStatsStore persists the campaign-wide outcome aggregates feeding
// the luck debt compensator.
type GlobalStatsStore interface {
	GetGlobalStats(ctx context.Context, tx Tx, campaignID string) (engine.GlobalStats, error)
	AddGlobalStats(ctx context.Context, tx Tx, campaignID string, draws, empties int64) error
}

// Ledger is the append-only record of settled draws and operator actions.
// AppendDraw fails with ErrDuplicateRequest when the idempotency key is
// already present.
type Ledger interface {
	AppendDraw(ctx context.Context, tx Tx, rec DrawRecord) error
	DrawsByRequest(ctx context.Context, tx Tx, campaignID, userID, requestID string) ([]DrawRecord, error)
	AppendAudit(ctx context.Context, tx Tx, rec AuditRecord) error
	AuditTrail(ctx context.Context, tx Tx, campaignID string) ([]AuditRecord, error)
}

// SettingsStore holds pending admin overrides. PutSetting fails with
// ErrConflict when an unconsumed setting already occupies the slot.
// ConsumeSettings atomically returns and marks every active setting, so a
// setting applies to exactly one draw.
type SettingsStore interface {
	PutSetting(ctx context.Context, tx Tx, s UserSetting) error
	ActiveSettings(ctx context.Context, tx Tx, campaignID, userID string) ([]UserSetting, error)
	ConsumeSettings(ctx context.Context, tx Tx, campaignID, userID string) ([]UserSetting, error)
	ClearSettings(ctx context.Context, tx Tx, campaignID, userID string) (int, error)
}

// DB is the full persistence surface plus transaction control. RunInTx
// runs fn in one transaction and is the only mint for Tx handles; an error
// from fn rolls everything back.
type DB interface {
	CampaignBudgetProvider
	UserStore
	PrizeCatalog
	UserExperienceStore
	GlobalStatsStore
	Ledger
	SettingsStore

	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
