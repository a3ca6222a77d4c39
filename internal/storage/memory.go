package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// MemoryStore is an in-memory implementation of service.Store.
// It is safe for concurrent use. Data is lost when the process exits.
type MemoryStore struct {
	failure   error
	profiles  map[string]*model.UserProfile
	rules     map[string][]model.UserRule
	learning  map[string]*model.MerchantLearningRecord
	events    map[string][]model.CorrectionEvent
	eventKeys map[string]struct{}
	confirmed map[string][]model.ConfirmedTransaction
	nextRule  int64
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[string]*model.UserProfile),
		rules:     make(map[string][]model.UserRule),
		learning:  make(map[string]*model.MerchantLearningRecord),
		events:    make(map[string][]model.CorrectionEvent),
		eventKeys: make(map[string]struct{}),
		confirmed: make(map[string][]model.ConfirmedTransaction),
	}
}

// SetFailure makes every subsequent call return err. Pass nil to recover.
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// GetProfile implements service.ProfileSource.
func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}

	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for %s: %w", userID, common.ErrNotFound)
	}
	return copyProfile(p), nil
}

// SaveProfile stores a copy of profile.
func (m *MemoryStore) SaveProfile(_ context.Context, profile *model.UserProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

func copyProfile(p *model.UserProfile) *model.UserProfile {
	out := *p
	out.Preferences = make(map[model.PolicyName]model.PolicyValue, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	if p.DepreciationThreshold != nil {
		d := *p.DepreciationThreshold
		out.DepreciationThreshold = &d
	}
	return &out
}

// GetUserRules implements service.RuleSource.
func (m *MemoryStore) GetUserRules(_ context.Context, userID string) ([]model.UserRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}
	return append([]model.UserRule(nil), m.rules[userID]...), nil
}

// AddUserRule stores rule and assigns its ID.
func (m *MemoryStore) AddUserRule(_ context.Context, rule *model.UserRule) error {
	if err := validateUserRule(rule); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	m.nextRule++
	rule.ID = m.nextRule
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	m.rules[rule.UserID] = append(m.rules[rule.UserID], *rule)
	return nil
}

// DeleteUserRule removes a rule by ID.
func (m *MemoryStore) DeleteUserRule(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	rules := m.rules[userID]
	for i, r := range rules {
		if r.ID == id {
			m.rules[userID] = append(rules[:i:i], rules[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

// GetLearningRecord implements service.KnowledgeStore.
func (m *MemoryStore) GetLearningRecord(_ context.Context, userID, fingerprint string) (*model.MerchantLearningRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}
	rec, ok := m.learning[learningCacheKey(userID, fingerprint)]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// ApplyCorrection implements service.KnowledgeStore.
func (m *MemoryStore) ApplyCorrection(_ context.Context, event model.CorrectionEvent) (*model.MerchantLearningRecord, error) {
	if err := validateCorrectionEvent(event); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}

	eventKey := event.UserID + "\x00" + event.Key
	if _, seen := m.eventKeys[eventKey]; seen {
		return nil, fmt.Errorf("correction %s: %w", event.Key, common.ErrDuplicateEntry)
	}
	m.eventKeys[eventKey] = struct{}{}
	m.events[event.UserID] = append(m.events[event.UserID], event)

	key := learningCacheKey(event.UserID, event.Fingerprint)
	rec, ok := m.learning[key]
	if !ok {
		rec = &model.MerchantLearningRecord{
			UserID:      event.UserID,
			Fingerprint: event.Fingerprint,
		}
		m.learning[key] = rec
	}
	rec.MerchantName = event.MerchantName
	rec.CategoryID = event.CategoryID
	rec.CategoryName = event.CategoryName
	rec.IsBusiness = event.IsBusiness
	rec.CorrectionCount++
	rec.LastCorrectedAt = event.At

	out := *rec
	return &out, nil
}

// ListLearningRecords returns a user's records, most corrected first.
func (m *MemoryStore) ListLearningRecords(_ context.Context, userID string) ([]model.MerchantLearningRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}

	var out []model.MerchantLearningRecord
	for _, rec := range m.learning {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CorrectionCount != out[j].CorrectionCount {
			return out[i].CorrectionCount > out[j].CorrectionCount
		}
		return out[i].MerchantName < out[j].MerchantName
	})
	return out, nil
}

// ListCorrectionEvents returns a user's most recent corrections, newest first.
func (m *MemoryStore) ListCorrectionEvents(_ context.Context, userID string, limit int) ([]model.CorrectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}

	events := m.events[userID]
	if limit <= 0 {
		limit = 50
	}
	out := make([]model.CorrectionEvent, 0, min(limit, len(events)))
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out, nil
}

// SaveConfirmedTransaction implements service.HistoryStore.
func (m *MemoryStore) SaveConfirmedTransaction(_ context.Context, txn model.ConfirmedTransaction) error {
	if err := validateConfirmed(txn); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}
	if txn.ConfirmedAt.IsZero() {
		txn.ConfirmedAt = time.Now().UTC()
	}
	m.confirmed[txn.UserID] = append(m.confirmed[txn.UserID], txn)
	return nil
}

// ComputeMerchantStatistics implements service.HistoryStore.
func (m *MemoryStore) ComputeMerchantStatistics(_ context.Context, userID string) (map[string]*model.MerchantStatistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failure != nil {
		return nil, m.failure
	}

	stats := make(map[string]*model.MerchantStatistics)
	for _, txn := range m.confirmed[userID] {
		key := textnorm.Normalize(txn.MerchantName)
		ms, ok := stats[key]
		if !ok {
			ms = model.NewMerchantStatistics(key)
			stats[key] = ms
		}
		ms.Add(txn.CategoryID, txn.IsBusiness)
	}
	return stats, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
