package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/mattn/go-sqlite3"
)

const learningCacheTTL = 5 * time.Minute

// SQLiteStorage implements service.Store using SQLite.
type SQLiteStorage struct {
	cacheExpiry   time.Time
	db            *sql.DB
	learningCache map[string]*model.MerchantLearningRecord
	dbPath        string
	cacheMutex    sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one connection keeps the upserts ordered.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:            db,
		dbPath:        dbPath,
		learningCache: make(map[string]*model.MerchantLearningRecord),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// wrapDBError marks lock contention as a transient store failure so callers can retry.
func wrapDBError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%s: %w: %v", op, common.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func learningCacheKey(userID, fingerprint string) string {
	return userID + "\x00" + fingerprint
}

func (s *SQLiteStorage) getCachedLearning(userID, fingerprint string) *model.MerchantLearningRecord {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	rec, ok := s.learningCache[learningCacheKey(userID, fingerprint)]
	if !ok {
		return nil
	}
	out := *rec
	return &out
}

func (s *SQLiteStorage) cacheLearning(rec *model.MerchantLearningRecord) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if time.Now().After(s.cacheExpiry) {
		s.learningCache = make(map[string]*model.MerchantLearningRecord)
		s.cacheExpiry = time.Now().Add(learningCacheTTL)
	}
	cp := *rec
	s.learningCache[learningCacheKey(rec.UserID, rec.Fingerprint)] = &cp
}
