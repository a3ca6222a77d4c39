package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// SaveConfirmedTransaction records a reviewed transaction for merchant statistics.
func (s *SQLiteStorage) SaveConfirmedTransaction(ctx context.Context, txn model.ConfirmedTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateConfirmed(txn); err != nil {
		return err
	}
	if txn.ConfirmedAt.IsZero() {
		txn.ConfirmedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confirmed_transactions (user_id, merchant_key, merchant_name, category_id, is_business, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.UserID, textnorm.Normalize(txn.MerchantName), txn.MerchantName,
		string(txn.CategoryID), txn.IsBusiness, txn.ConfirmedAt)
	if err != nil {
		return wrapDBError("failed to save confirmed transaction", err)
	}
	return nil
}

// ComputeMerchantStatistics aggregates a user's confirmed history, keyed by normalized merchant.
func (s *SQLiteStorage) ComputeMerchantStatistics(ctx context.Context, userID string) (map[string]*model.MerchantStatistics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key, category_id, COUNT(*), SUM(is_business)
		FROM confirmed_transactions
		WHERE user_id = ?
		GROUP BY merchant_key, category_id
	`, userID)
	if err != nil {
		return nil, wrapDBError("failed to aggregate confirmed transactions", err)
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[string]*model.MerchantStatistics)
	for rows.Next() {
		var (
			merchant, category string
			count, business    int
		)
		if err := rows.Scan(&merchant, &category, &count, &business); err != nil {
			return nil, fmt.Errorf("failed to scan merchant statistics: %w", err)
		}
		ms, ok := stats[merchant]
		if !ok {
			ms = model.NewMerchantStatistics(merchant)
			stats[merchant] = ms
		}
		id := model.CategoryID(category)
		ms.Tallies[id] = &model.CategoryTally{Category: id, Count: count, BusinessCount: business}
		ms.TotalTransactions += count
	}
	return stats, rows.Err()
}
