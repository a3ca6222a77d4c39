package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/shopspring/decimal"
)

// GetProfile loads a user's profile. It returns common.ErrNotFound when the user has none.
func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var (
		industry  string
		threshold sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT industry, depreciation_threshold
		FROM user_profiles
		WHERE user_id = ?
	`, userID).Scan(&industry, &threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, wrapDBError("failed to get profile", err)
	}

	profile := &model.UserProfile{
		UserID:      userID,
		Industry:    model.Industry(industry),
		Preferences: make(map[model.PolicyName]model.PolicyValue),
	}
	if threshold.Valid && threshold.String != "" {
		d, err := decimal.NewFromString(threshold.String)
		if err != nil {
			return nil, fmt.Errorf("%w: depreciation threshold %q", common.ErrDatabaseCorrupted, threshold.String)
		}
		profile.DepreciationThreshold = &d
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, percent
		FROM user_preferences
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, wrapDBError("failed to query preferences", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name, kind string
			percent    int
		)
		if err := rows.Scan(&name, &kind, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		profile.Preferences[model.PolicyName(name)] = model.PolicyValue{
			Kind:    model.PolicyKind(kind),
			Percent: percent,
		}
	}

	return profile, rows.Err()
}

// SaveProfile creates or replaces a user's profile and preferences.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	industry := profile.Industry
	if industry == "" {
		industry = model.IndustryOther
	}
	var threshold sql.NullString
	if profile.DepreciationThreshold != nil {
		threshold = sql.NullString{String: profile.DepreciationThreshold.String(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, industry, depreciation_threshold, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			industry = excluded.industry,
			depreciation_threshold = excluded.depreciation_threshold,
			updated_at = excluded.updated_at
	`, profile.UserID, string(industry), threshold)
	if err != nil {
		return wrapDBError("failed to save profile", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_preferences WHERE user_id = ?`, profile.UserID); err != nil {
		return wrapDBError("failed to clear preferences", err)
	}
	for name, v := range profile.Preferences {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_preferences (user_id, name, kind, percent)
			VALUES (?, ?, ?, ?)
		`, profile.UserID, string(name), string(v.Kind), v.Percent)
		if err != nil {
			return wrapDBError("failed to save preference", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("failed to commit profile", err)
	}
	return nil
}
