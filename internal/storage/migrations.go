package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Profiles, preferences and user rules",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS user_profiles (
					user_id TEXT PRIMARY KEY,
					industry TEXT NOT NULL DEFAULT 'other',
					depreciation_threshold TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS user_preferences (
					user_id TEXT NOT NULL,
					name TEXT NOT NULL,
					kind TEXT NOT NULL,
					percent INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (user_id, name),
					FOREIGN KEY (user_id) REFERENCES user_profiles(user_id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS user_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					pattern TEXT NOT NULL,
					category_id TEXT NOT NULL,
					is_business INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_user_rules_user ON user_rules(user_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Merchant learning records and correction ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS merchant_learning (
					user_id TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					merchant_name TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL,
					category_name TEXT NOT NULL,
					is_business INTEGER NOT NULL,
					correction_count INTEGER NOT NULL CHECK (correction_count >= 1),
					last_corrected_at DATETIME NOT NULL,
					PRIMARY KEY (user_id, fingerprint)
				)`,
				`CREATE TABLE IF NOT EXISTS correction_events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					event_key TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					merchant_name TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL,
					category_name TEXT NOT NULL,
					is_business INTEGER NOT NULL,
					corrected_at DATETIME NOT NULL,
					UNIQUE (user_id, event_key)
				)`,
				`CREATE INDEX idx_correction_events_fingerprint ON correction_events(user_id, fingerprint)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Confirmed transactions for merchant statistics",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS confirmed_transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					merchant_key TEXT NOT NULL,
					merchant_name TEXT NOT NULL,
					category_id TEXT NOT NULL,
					is_business INTEGER NOT NULL,
					confirmed_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_confirmed_user_merchant ON confirmed_transactions(user_id, merchant_key)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
