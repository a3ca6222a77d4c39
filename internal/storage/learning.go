package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
)

const learningColumns = `user_id, fingerprint, merchant_name, category_id, category_name,
	is_business, correction_count, last_corrected_at`

// GetLearningRecord returns the learning record for a fingerprint.
func (s *SQLiteStorage) GetLearningRecord(ctx context.Context, userID, fingerprint string) (*model.MerchantLearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateFingerprint(fingerprint); err != nil {
		return nil, err
	}

	if rec := s.getCachedLearning(userID, fingerprint); rec != nil {
		return rec, nil
	}

	rec, err := s.getLearningRecordTx(ctx, s.db, userID, fingerprint)
	if err != nil {
		return nil, err
	}
	s.cacheLearning(rec)
	return rec, nil
}

func (s *SQLiteStorage) getLearningRecordTx(ctx context.Context, q queryable, userID, fingerprint string) (*model.MerchantLearningRecord, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+learningColumns+`
		FROM merchant_learning
		WHERE user_id = ? AND fingerprint = ?
	`, userID, fingerprint)

	rec, err := scanLearningRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, wrapDBError("failed to get learning record", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLearningRecord(row scanner) (*model.MerchantLearningRecord, error) {
	var (
		rec      model.MerchantLearningRecord
		category string
	)
	err := row.Scan(
		&rec.UserID,
		&rec.Fingerprint,
		&rec.MerchantName,
		&category,
		&rec.CategoryName,
		&rec.IsBusiness,
		&rec.CorrectionCount,
		&rec.LastCorrectedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CategoryID = model.CategoryID(category)
	return &rec, nil
}

// ApplyCorrection records a correction event and folds it into the fingerprint's
// learning record in one transaction. The count is incremented in SQL so
// concurrent writers cannot lose updates. A repeated event key returns
// common.ErrDuplicateEntry and leaves the record untouched.
func (s *SQLiteStorage) ApplyCorrection(ctx context.Context, event model.CorrectionEvent) (*model.MerchantLearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCorrectionEvent(event); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDBError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO correction_events (
			user_id, event_key, fingerprint, merchant_name, description,
			category_id, category_name, is_business, corrected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.UserID, event.Key, event.Fingerprint, event.MerchantName, event.Description,
		string(event.CategoryID), event.CategoryName, event.IsBusiness, event.At)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("correction %s: %w", event.Key, common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, wrapDBError("failed to record correction event", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO merchant_learning (
			user_id, fingerprint, merchant_name, category_id, category_name,
			is_business, correction_count, last_corrected_at
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id, fingerprint) DO UPDATE SET
			merchant_name = excluded.merchant_name,
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			is_business = excluded.is_business,
			correction_count = merchant_learning.correction_count + 1,
			last_corrected_at = excluded.last_corrected_at
	`, event.UserID, event.Fingerprint, event.MerchantName, string(event.CategoryID),
		event.CategoryName, event.IsBusiness, event.At)
	if err != nil {
		return nil, wrapDBError("failed to upsert learning record", err)
	}

	rec, err := s.getLearningRecordTx(ctx, tx, event.UserID, event.Fingerprint)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapDBError("failed to commit correction", err)
	}

	s.cacheLearning(rec)
	return rec, nil
}

// ListLearningRecords returns every learning record for a user, most corrected first.
func (s *SQLiteStorage) ListLearningRecords(ctx context.Context, userID string) ([]model.MerchantLearningRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+learningColumns+`
		FROM merchant_learning
		WHERE user_id = ?
		ORDER BY correction_count DESC, merchant_name
	`, userID)
	if err != nil {
		return nil, wrapDBError("failed to query learning records", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.MerchantLearningRecord
	for rows.Next() {
		rec, err := scanLearningRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learning record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListCorrectionEvents returns a user's most recent corrections, newest first.
func (s *SQLiteStorage) ListCorrectionEvents(ctx context.Context, userID string, limit int) ([]model.CorrectionEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_key, user_id, fingerprint, merchant_name, description,
			category_id, category_name, is_business, corrected_at
		FROM correction_events
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, wrapDBError("failed to query correction events", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.CorrectionEvent
	for rows.Next() {
		var (
			e        model.CorrectionEvent
			category string
		)
		if err := rows.Scan(&e.Key, &e.UserID, &e.Fingerprint, &e.MerchantName, &e.Description,
			&category, &e.CategoryName, &e.IsBusiness, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan correction event: %w", err)
		}
		e.CategoryID = model.CategoryID(category)
		events = append(events, e)
	}
	return events, rows.Err()
}
