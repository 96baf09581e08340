// Package memory is the in-memory store.DB used by tests and the
// simulator. RunInTx snapshots the whole dataset up front and restores it
// when fn fails, matching the all-or-nothing semantics of the SQL store
// without a database. Transactions serialize behind one mutex.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xtding233/lottery-engine/internal/engine"
	"github.com/xtding233/lottery-engine/internal/store"
)

// dataset is the whole mutable state, cloneable in one go.
type dataset struct {
	campaigns  map[string]store.Campaign
	users      map[string]store.User
	stock      map[string]map[string]int // campaign -> prize -> level
	experience map[string]engine.ExperienceState
	stats      map[string]engine.GlobalStats
	draws      map[string]store.DrawRecord // idempotency key
	drawOrder  []string
	audits     []store.AuditRecord
	settings   map[string]store.UserSetting // slot key -> active setting
	consumed   []store.UserSetting
}

func newDataset() *dataset {
	return &dataset{
		campaigns:  make(map[string]store.Campaign),
		users:      make(map[string]store.User),
		stock:      make(map[string]map[string]int),
		experience: make(map[string]engine.ExperienceState),
		stats:      make(map[string]engine.GlobalStats),
		draws:      make(map[string]store.DrawRecord),
		settings:   make(map[string]store.UserSetting),
	}
}

func (d *dataset) clone() *dataset {
	out := newDataset()
	for k, v := range d.campaigns {
		out.campaigns[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.stock {
		m := make(map[string]int, len(v))
		for pk, pv := range v {
			m[pk] = pv
		}
		out.stock[k] = m
	}
	for k, v := range d.experience {
		out.experience[k] = v
	}
	for k, v := range d.stats {
		out.stats[k] = v
	}
	for k, v := range d.draws {
		out.draws[k] = v
	}
	out.drawOrder = append([]string(nil), d.drawOrder...)
	out.audits = append([]store.AuditRecord(nil), d.audits...)
	for k, v := range d.settings {
		out.settings[k] = v
	}
	out.consumed = append([]store.UserSetting(nil), d.consumed...)
	return out
}

// Store implements store.DB in memory.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

func NewStore() *Store {
	return &Store{data: newDataset()}
}

// memTx is the one Tx shape this store accepts. It stays valid only while
// its RunInTx call is on the stack.
type memTx struct {
	store.TxMarker
	owner  *Store
	active bool
}

// RunInTx serializes transactions behind the store mutex and rolls the
// dataset back to the entry snapshot when fn returns an error or panics.
func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &memTx{owner: s, active: true}
	defer func() { tx.active = false }()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.data = snapshot
				panic(r)
			}
		}()
		return fn(tx)
	}()
	if err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

// handle validates that tx was minted by this store's RunInTx and is still
// on the stack.
func (s *Store) handle(tx store.Tx) (*memTx, error) {
	h, ok := tx.(*memTx)
	if !ok || h.owner != s || !h.active {
		return nil, store.ErrNoTransaction
	}
	return h, nil
}

func (s *Store) CreateCampaign(ctx context.Context, tx store.Tx, c store.Campaign) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if _, ok := s.data.campaigns[c.ID]; ok {
		return store.NewError(store.CodeConflict, fmt.Sprintf("campaign %s already exists", c.ID), nil)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.data.campaigns[c.ID] = c
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, tx store.Tx, id string) (store.Campaign, error) {
	if _, err := s.handle(tx); err != nil {
		return store.Campaign{}, err
	}
	c, ok := s.data.campaigns[id]
	if !ok {
		return store.Campaign{}, store.ErrCampaignNotFound
	}
	return c, nil
}

func (s *Store) DebitBudget(ctx context.Context, tx store.Tx, id string, amount int64) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("negative debit %d", amount)
	}
	c, ok := s.data.campaigns[id]
	if !ok {
		return store.ErrCampaignNotFound
	}
	if c.EffectiveBudget < amount {
		return fmt.Errorf("budget overdraft on %s: %d < %d", id, c.EffectiveBudget, amount)
	}
	c.EffectiveBudget -= amount
	s.data.campaigns[id] = c
	return nil
}

func (s *Store) TopUpBudget(ctx context.Context, tx store.Tx, id string, amount int64) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("top-up must be positive, got %d", amount)
	}
	c, ok := s.data.campaigns[id]
	if !ok {
		return store.ErrCampaignNotFound
	}
	c.EffectiveBudget += amount
	s.data.campaigns[id] = c
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, tx store.Tx, id string, points int64) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if _, ok := s.data.users[id]; !ok {
		s.data.users[id] = store.User{ID: id, Points: points}
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, tx store.Tx, id string) (store.User, error) {
	if _, err := s.handle(tx); err != nil {
		return store.User{}, err
	}
	u, ok := s.data.users[id]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) AdjustPoints(ctx context.Context, tx store.Tx, id string, delta int64) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	u, ok := s.data.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if u.Points+delta < 0 {
		return store.NewError(store.CodeInsufficientPoints,
			fmt.Sprintf("user %s holds %d points, needs %d", id, u.Points, -delta), nil)
	}
	u.Points += delta
	s.data.users[id] = u
	return nil
}

func (s *Store) StockLevels(ctx context.Context, tx store.Tx, campaignID string) (map[string]int, error) {
	if _, err := s.handle(tx); err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for k, v := range s.data.stock[campaignID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetStock(ctx context.Context, tx store.Tx, campaignID, prizeID string, level int) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if level < -1 {
		return fmt.Errorf("stock level %d out of range", level)
	}
	m, ok := s.data.stock[campaignID]
	if !ok {
		m = make(map[string]int)
		s.data.stock[campaignID] = m
	}
	m[prizeID] = level
	return nil
}

func expKey(campaignID, userID string) string { return campaignID + "|" + userID }

func (s *Store) GetExperience(ctx context.Context, tx store.Tx, campaignID, userID string) (engine.ExperienceState, error) {
	if _, err := s.handle(tx); err != nil {
		return engine.ExperienceState{}, err
	}
	return s.data.experience[expKey(campaignID, userID)], nil
}

func (s *Store) PutExperience(ctx context.Context, tx store.Tx, campaignID, userID string, exp engine.ExperienceState) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	s.data.experience[expKey(campaignID, userID)] = exp
	return nil
}

func (s *Store) GetGlobalStats(ctx context.Context, tx store.Tx, campaignID string) (engine.GlobalStats, error) {
	if _, err := s.handle(tx); err != nil {
		return engine.GlobalStats{}, err
	}
	return s.data.stats[campaignID], nil
}

func (s *Store) AddGlobalStats(ctx context.Context, tx store.Tx, campaignID string, draws, empties int64) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	g := s.data.stats[campaignID]
	g.DrawCount += draws
	g.EmptyCount += empties
	s.data.stats[campaignID] = g
	return nil
}

func (s *Store) AppendDraw(ctx context.Context, tx store.Tx, rec store.DrawRecord) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	key := rec.IdempotencyKey()
	if _, ok := s.data.draws[key]; ok {
		return store.NewError(store.CodeDuplicateRequest, fmt.Sprintf("draw %s already recorded", key), nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.data.draws[key] = rec
	s.data.drawOrder = append(s.data.drawOrder, key)
	return nil
}

func (s *Store) DrawsByRequest(ctx context.Context, tx store.Tx, campaignID, userID, requestID string) ([]store.DrawRecord, error) {
	if _, err := s.handle(tx); err != nil {
		return nil, err
	}
	var out []store.DrawRecord
	for _, key := range s.data.drawOrder {
		rec := s.data.draws[key]
		if rec.CampaignID == campaignID && rec.UserID == userID && rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) AppendAudit(ctx context.Context, tx store.Tx, rec store.AuditRecord) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.data.audits = append(s.data.audits, rec)
	return nil
}

func (s *Store) AuditTrail(ctx context.Context, tx store.Tx, campaignID string) ([]store.AuditRecord, error) {
	if _, err := s.handle(tx); err != nil {
		return nil, err
	}
	var out []store.AuditRecord
	for _, rec := range s.data.audits {
		if rec.CampaignID == campaignID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) PutSetting(ctx context.Context, tx store.Tx, set store.UserSetting) error {
	if _, err := s.handle(tx); err != nil {
		return err
	}
	key := set.Key()
	if _, ok := s.data.settings[key]; ok {
		return store.NewError(store.CodeConflict, fmt.Sprintf("active setting %s already exists", key), nil)
	}
	set.Consumed = false
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}
	s.data.settings[key] = set
	return nil
}

func (s *Store) ActiveSettings(ctx context.Context, tx store.Tx, campaignID, userID string) ([]store.UserSetting, error) {
	if _, err := s.handle(tx); err != nil {
		return nil, err
	}
	return s.activeFor(campaignID, userID), nil
}

func (s *Store) ConsumeSettings(ctx context.Context, tx store.Tx, campaignID, userID string) ([]store.UserSetting, error) {
	if _, err := s.handle(tx); err != nil {
		return nil, err
	}
	return s.takeActive(campaignID, userID), nil
}

func (s *Store) ClearSettings(ctx context.Context, tx store.Tx, campaignID, userID string) (int, error) {
	if _, err := s.handle(tx); err != nil {
		return 0, err
	}
	return len(s.takeActive(campaignID, userID)), nil
}

// takeActive removes the user's active settings, retiring them to the
// consumed list, and returns them as they were.
func (s *Store) takeActive(campaignID, userID string) []store.UserSetting {
	active := s.activeFor(campaignID, userID)
	for _, set := range active {
		delete(s.data.settings, set.Key())
		set.Consumed = true
		s.data.consumed = append(s.data.consumed, set)
	}
	return active
}

// activeFor collects the unconsumed settings of one user, ordered by kind
// for deterministic application.
func (s *Store) activeFor(campaignID, userID string) []store.UserSetting {
	var out []store.UserSetting
	for _, set := range s.data.settings {
		if set.CampaignID == campaignID && set.UserID == userID {
			out = append(out, set)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
