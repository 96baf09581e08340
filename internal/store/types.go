package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
)

// Campaign is the budget-bearing campaign row. Parameters and the activity
// window live in the config files; only mutable budget state is stored.
type Campaign struct {
	ID              string
	Name            string
	InitialBudget   int64
	EffectiveBudget int64
	CreatedAt       time.Time
}

// User carries the points balance draws are paid from.
type User struct {
	ID     string
	Points int64
}

// DrawRecord is one settled draw in the ledger.
type DrawRecord struct {
	CampaignID string
	UserID     string
	RequestID  string
	Seq        int
	Tier       engine.Tier
	PrizeID    string // empty when the outcome is empty-handed
	Cost       int64
	Mechanisms []engine.Mechanism
	CreatedAt  time.Time
}

// IdempotencyKey derives the ledger key from business identifiers only, so
// a retried request reproduces the same keys and trips the unique index.
func (r DrawRecord) IdempotencyKey() string {
	return strings.Join([]string{r.CampaignID, r.UserID, r.RequestID, strconv.Itoa(r.Seq)}, "|")
}

// AuditRecord is one append-only operator or system action entry. ID is a
// caller-assigned UUID; RefKey points at the object acted on: a setting
// key, a draw idempotency key.
type AuditRecord struct {
	ID         string
	CampaignID string
	UserID     string
	Actor      string
	Action     string
	Detail     string
	RefKey     string
	CreatedAt  time.Time
}

// SettingKind enumerates the admin override kinds.
type SettingKind string

const (
	SettingForceWin    SettingKind = "force_win"
	SettingForceLose   SettingKind = "force_lose"
	SettingProbability SettingKind = "probability_adjust"
	SettingQueuedPrize SettingKind = "queued_prize"
)

// UserSetting is one pending admin override. At most one unconsumed
// setting may exist per campaign+user+kind; the next draw consumes it.
type UserSetting struct {
	CampaignID string
	UserID     string
	Kind       SettingKind
	Value      string
	Actor      string
	Consumed   bool
	CreatedAt  time.Time
}

// Key identifies the active-setting slot.
func (s UserSetting) Key() string {
	return strings.Join([]string{s.CampaignID, s.UserID, string(s.Kind)}, "|")
}
