// Package feedback turns user corrections and confirmations into merchant knowledge.
// It is the only writer of learning records.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
	"github.com/Veraticus/kakeibo/internal/textnorm"
	"github.com/google/uuid"
)

// Correction is one human edit of an automatically assigned category.
type Correction struct {
	// IsBusiness overrides the category's default business flag when set.
	IsBusiness   *bool
	Key          string
	UserID       string
	MerchantName string
	Description  string
	CategoryName string
	CategoryID   model.CategoryID
}

// Confirmation records that a classification was reviewed and accepted.
type Confirmation struct {
	UserID       string
	MerchantName string
	CategoryID   model.CategoryID
	IsBusiness   bool
}

// Invalidator drops cached aggregates for a user.
type Invalidator interface {
	Invalidate(userID string)
}

// Handler records corrections and confirmations.
type Handler struct {
	store       service.KnowledgeStore
	history     service.HistoryStore
	invalidator Invalidator
	now         func() time.Time
	newKey      func() string
	locks       *keyedMutex
	retry       common.RetryOptions
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the clock used to stamp corrections.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithKeyGenerator sets how keys are minted for corrections submitted without one.
func WithKeyGenerator(newKey func() string) Option {
	return func(h *Handler) { h.newKey = newKey }
}

// WithHistory enables confirmations. invalidator may be nil.
func WithHistory(history service.HistoryStore, invalidator Invalidator) Option {
	return func(h *Handler) {
		h.history = history
		h.invalidator = invalidator
	}
}

// WithRetry sets the retry policy for transient store failures.
func WithRetry(opts common.RetryOptions) Option {
	return func(h *Handler) { h.retry = opts }
}

// New creates a feedback handler.
func New(store service.KnowledgeStore, opts ...Option) *Handler {
	h := &Handler{
		store:  store,
		now:    time.Now,
		newKey: uuid.NewString,
		locks:  newKeyedMutex(),
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RecordCorrection folds a correction into the learning record for its fingerprint.
// Each distinct correction increments the count once; resubmitting a key that was
// already applied is a no-op. Input the store rejects comes back as
// ErrInvalidCorrection; other persistence failures are returned as retryable
// errors and are safe to retry with the same key.
func (h *Handler) RecordCorrection(ctx context.Context, c Correction) error {
	category, err := h.validate(c)
	if err != nil {
		return err
	}

	key := c.Key
	if key == "" {
		key = h.newKey()
	}
	isBusiness := category.IsBusinessDefault()
	if c.IsBusiness != nil {
		isBusiness = *c.IsBusiness
	}
	fp := model.Fingerprint(c.MerchantName, c.Description)

	unlock := h.locks.Lock(c.UserID + "\x00" + fp)
	defer unlock()

	event := model.CorrectionEvent{
		At:           h.now().UTC(),
		Key:          key,
		UserID:       c.UserID,
		Fingerprint:  fp,
		MerchantName: c.MerchantName,
		Description:  c.Description,
		CategoryName: category.Name,
		CategoryID:   category.ID,
		IsBusiness:   isBusiness,
	}

	var rec *model.MerchantLearningRecord
	err = common.WithRetry(ctx, func() error {
		var applyErr error
		rec, applyErr = h.store.ApplyCorrection(ctx, event)
		return applyErr
	}, h.retry)
	if errors.Is(err, common.ErrDuplicateEntry) {
		slog.Info("Ignoring already applied correction",
			"user_id", c.UserID,
			"key", key)
		return nil
	}
	if errors.Is(err, common.ErrValidation) {
		return fmt.Errorf("%w: %w", common.ErrInvalidCorrection, err)
	}
	if err != nil {
		return common.Retryable(fmt.Errorf("failed to persist correction %s: %w", key, err))
	}

	slog.Info("Recorded correction",
		"user_id", c.UserID,
		"merchant", c.MerchantName,
		"category", rec.CategoryID,
		"correction_count", rec.CorrectionCount,
		"confidence", rec.Confidence())
	return nil
}

func (h *Handler) validate(c Correction) (model.Category, error) {
	if c.UserID == "" {
		return model.Category{}, fmt.Errorf("%w: missing user ID", common.ErrInvalidCorrection)
	}
	if textnorm.Normalize(c.MerchantName) == "" && textnorm.Normalize(c.Description) == "" {
		return model.Category{}, fmt.Errorf("%w: merchant and description are both empty", common.ErrInvalidCorrection)
	}
	category, err := model.ResolveCategory(c.CategoryID, c.CategoryName)
	if err != nil {
		return model.Category{}, fmt.Errorf("%w: %w", common.ErrInvalidCorrection, err)
	}
	return category, nil
}

// RecordConfirmation adds a reviewed transaction to the user's history and
// drops their cached merchant statistics.
func (h *Handler) RecordConfirmation(ctx context.Context, c Confirmation) error {
	if h.history == nil {
		return fmt.Errorf("%w: confirmations need a history store", common.ErrMissingConfig)
	}
	if c.UserID == "" || textnorm.Normalize(c.MerchantName) == "" {
		return fmt.Errorf("%w: confirmation needs a user and a merchant", common.ErrInvalidCorrection)
	}
	if _, ok := model.LookupCategory(c.CategoryID); !ok {
		return fmt.Errorf("%w: %w: %q", common.ErrInvalidCorrection, model.ErrUnknownCategory, c.CategoryID)
	}

	txn := model.ConfirmedTransaction{
		ConfirmedAt:  h.now().UTC(),
		UserID:       c.UserID,
		MerchantName: c.MerchantName,
		CategoryID:   c.CategoryID,
		IsBusiness:   c.IsBusiness,
	}
	err := common.WithRetry(ctx, func() error {
		return h.history.SaveConfirmedTransaction(ctx, txn)
	}, h.retry)
	if errors.Is(err, common.ErrValidation) {
		return fmt.Errorf("%w: %w", common.ErrInvalidCorrection, err)
	}
	if err != nil {
		return common.Retryable(fmt.Errorf("failed to persist confirmation: %w", err))
	}

	if h.invalidator != nil {
		h.invalidator.Invalidate(c.UserID)
	}
	slog.Debug("Recorded confirmation",
		"user_id", c.UserID,
		"merchant", c.MerchantName,
		"category", c.CategoryID)
	return nil
}
