package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
)

// GetUserRules returns a user's override rules in creation order.
func (s *SQLiteStorage) GetUserRules(ctx context.Context, userID string) ([]model.UserRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, pattern, category_id, is_business, created_at
		FROM user_rules
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, wrapDBError("failed to query user rules", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.UserRule
	for rows.Next() {
		var (
			rule     model.UserRule
			category string
		)
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Pattern, &category, &rule.IsBusiness, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user rule: %w", err)
		}
		rule.Category = model.CategoryID(category)
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// AddUserRule stores a new override rule and fills in its ID and creation time.
func (s *SQLiteStorage) AddUserRule(ctx context.Context, rule *model.UserRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUserRule(rule); err != nil {
		return err
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_rules (user_id, pattern, category_id, is_business, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rule.UserID, rule.Pattern, string(rule.Category), rule.IsBusiness, rule.CreatedAt)
	if err != nil {
		return wrapDBError("failed to add user rule", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = id
	return nil
}

// DeleteUserRule removes one of a user's rules.
func (s *SQLiteStorage) DeleteUserRule(ctx context.Context, userID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_rules WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return wrapDBError("failed to delete user rule", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
