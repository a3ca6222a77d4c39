// Package service defines the interfaces between the classification engine and
// the stores it reads from and writes to.
package service

import (
	"context"

	"github.com/Veraticus/kakeibo/internal/model"
)

// ProfileSource supplies user profiles. A missing profile is returned as common.ErrNotFound.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
}

// RuleSource supplies a user's override rules in evaluation order.
type RuleSource interface {
	GetUserRules(ctx context.Context, userID string) ([]model.UserRule, error)
}

// KnowledgeStore is the merchant knowledge persisted per user.
type KnowledgeStore interface {
	// GetLearningRecord returns common.ErrNotFound when the fingerprint is unknown.
	GetLearningRecord(ctx context.Context, userID, fingerprint string) (*model.MerchantLearningRecord, error)
	// ApplyCorrection atomically increments the correction count for the event's
	// fingerprint and overwrites its category. It returns common.ErrDuplicateEntry
	// when an event with the same key was already applied.
	ApplyCorrection(ctx context.Context, event model.CorrectionEvent) (*model.MerchantLearningRecord, error)
}

// StatisticsSource supplies merchant statistics derived from confirmed history.
type StatisticsSource interface {
	// GetMerchantStatistics returns nil, nil when the merchant has no history.
	GetMerchantStatistics(ctx context.Context, userID, merchant string) (*model.MerchantStatistics, error)
}

// HistoryStore records confirmed transactions and recomputes statistics from them.
type HistoryStore interface {
	SaveConfirmedTransaction(ctx context.Context, txn model.ConfirmedTransaction) error
	ComputeMerchantStatistics(ctx context.Context, userID string) (map[string]*model.MerchantStatistics, error)
}

// Store is everything the CLI host needs from persistence.
type Store interface {
	ProfileSource
	RuleSource
	KnowledgeStore
	HistoryStore

	SaveProfile(ctx context.Context, profile *model.UserProfile) error
	AddUserRule(ctx context.Context, rule *model.UserRule) error
	DeleteUserRule(ctx context.Context, userID string, id int64) error
	ListLearningRecords(ctx context.Context, userID string) ([]model.MerchantLearningRecord, error)
	ListCorrectionEvents(ctx context.Context, userID string, limit int) ([]model.CorrectionEvent, error)
	Close() error
}
