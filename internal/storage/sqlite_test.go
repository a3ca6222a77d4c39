package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// stores runs fn against every service.Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s service.Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		s, cleanup := createTestStorage(t)
		defer cleanup()
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func correction(key, merchant, desc string, cat model.CategoryID, at time.Time) model.CorrectionEvent {
	c := model.MustCategory(cat)
	return model.CorrectionEvent{
		At:           at,
		Key:          key,
		UserID:       "u1",
		Fingerprint:  model.Fingerprint(merchant, desc),
		MerchantName: merchant,
		Description:  desc,
		CategoryName: c.Name,
		CategoryID:   cat,
		IsBusiness:   c.IsBusinessDefault(),
	}
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, v)

	for _, table := range []string{"user_profiles", "user_preferences", "user_rules", "merchant_learning", "correction_events", "confirmed_transactions"} {
		var n int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestStore_Profiles(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()

		_, err := s.GetProfile(ctx, "u1")
		require.ErrorIs(t, err, common.ErrNotFound)

		threshold := decimal.NewFromInt(100000)
		profile := &model.UserProfile{
			UserID:                "u1",
			Industry:              model.IndustrySoftware,
			DepreciationThreshold: &threshold,
			Preferences: map[model.PolicyName]model.PolicyValue{
				model.PolicyTaxiExpense:        {Kind: model.PolicyBusiness},
				model.PolicyPhoneBusinessRatio: {Kind: model.PolicyPercentage, Percent: 60},
			},
		}
		require.NoError(t, s.SaveProfile(ctx, profile))

		got, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, model.IndustrySoftware, got.Industry)
		require.NotNil(t, got.DepreciationThreshold)
		assert.True(t, threshold.Equal(*got.DepreciationThreshold))
		assert.Equal(t, profile.Preferences, got.Preferences)

		// Saving again replaces preferences.
		profile.Preferences = map[model.PolicyName]model.PolicyValue{
			model.PolicyBusinessLunch: {Kind: model.PolicyPersonal},
		}
		profile.DepreciationThreshold = nil
		require.NoError(t, s.SaveProfile(ctx, profile))

		got, err = s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got.DepreciationThreshold)
		assert.Len(t, got.Preferences, 1)
		assert.Equal(t, model.PolicyPersonal, got.Preferences[model.PolicyBusinessLunch].Kind)

		err = s.SaveProfile(ctx, &model.UserProfile{UserID: "u2", Industry: "astrology"})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})
}

func TestStore_UserRules(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()

		first := &model.UserRule{UserID: "u1", Pattern: "Starbucks", Category: model.CategoryPersonalFood}
		second := &model.UserRule{UserID: "u1", Pattern: "AWS", Category: model.CategorySoftware, IsBusiness: true}
		other := &model.UserRule{UserID: "u2", Pattern: "AWS", Category: model.CategoryCommunication, IsBusiness: true}
		for _, r := range []*model.UserRule{first, second, other} {
			require.NoError(t, s.AddUserRule(ctx, r))
			assert.NotZero(t, r.ID)
		}

		rules, err := s.GetUserRules(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, "Starbucks", rules[0].Pattern)
		assert.Equal(t, model.CategorySoftware, rules[1].Category)
		assert.True(t, rules[1].IsBusiness)

		require.NoError(t, s.DeleteUserRule(ctx, "u1", first.ID))
		assert.ErrorIs(t, s.DeleteUserRule(ctx, "u1", first.ID), common.ErrNotFound)
		// A user cannot delete another user's rule.
		assert.ErrorIs(t, s.DeleteUserRule(ctx, "u1", other.ID), common.ErrNotFound)

		rules, err = s.GetUserRules(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, rules, 1)

		err = s.AddUserRule(ctx, &model.UserRule{UserID: "u1", Pattern: "x", Category: "bogus"})
		assert.ErrorIs(t, err, model.ErrUnknownCategory)
	})
}

func TestStore_ApplyCorrection(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()
		t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		fp := model.Fingerprint("Starbucks", "STARBUCKS SHIBUYA")
		_, err := s.GetLearningRecord(ctx, "u1", fp)
		require.ErrorIs(t, err, common.ErrNotFound)

		rec, err := s.ApplyCorrection(ctx, correction("k1", "Starbucks", "STARBUCKS SHIBUYA", model.CategoryMeetingExpense, t0))
		require.NoError(t, err)
		assert.Equal(t, 1, rec.CorrectionCount)
		assert.Equal(t, model.CategoryMeetingExpense, rec.CategoryID)

		// Latest category wins and the count keeps climbing.
		rec, err = s.ApplyCorrection(ctx, correction("k2", "Starbucks", "starbucks shibuya", model.CategoryPersonalFood, t0.Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, 2, rec.CorrectionCount)
		assert.Equal(t, model.CategoryPersonalFood, rec.CategoryID)
		assert.False(t, rec.IsBusiness)
		assert.True(t, rec.LastCorrectedAt.Equal(t0.Add(time.Hour)))

		// A retried key is rejected and changes nothing.
		_, err = s.ApplyCorrection(ctx, correction("k2", "Starbucks", "STARBUCKS SHIBUYA", model.CategoryMeals, t0.Add(2*time.Hour)))
		require.ErrorIs(t, err, common.ErrDuplicateEntry)

		got, err := s.GetLearningRecord(ctx, "u1", fp)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CorrectionCount)
		assert.Equal(t, model.CategoryPersonalFood, got.CategoryID)

		events, err := s.ListCorrectionEvents(ctx, "u1", 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "k2", events[0].Key)

		records, err := s.ListLearningRecords(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestStore_ApplyCorrectionConcurrent(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()
		const writers = 20

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.ApplyCorrection(ctx, correction(fmt.Sprintf("key-%d", i), "Amazon", "AMAZON.CO.JP", model.CategorySupplies, time.Now()))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		rec, err := s.GetLearningRecord(ctx, "u1", model.Fingerprint("Amazon", "AMAZON.CO.JP"))
		require.NoError(t, err)
		assert.Equal(t, writers, rec.CorrectionCount)
	})
}

func TestStore_ApplyCorrectionValidation(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()
		now := time.Now()

		bad := correction("k", "m", "d", model.CategorySupplies, now)
		bad.Fingerprint = "not-a-digest"
		_, err := s.ApplyCorrection(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidFingerprint)

		bad = correction("k", "m", "d", model.CategorySupplies, now)
		bad.CategoryName = "Travel & Transportation"
		_, err = s.ApplyCorrection(ctx, bad)
		assert.ErrorIs(t, err, model.ErrUnknownCategory)

		bad = correction("", "m", "d", model.CategorySupplies, now)
		_, err = s.ApplyCorrection(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidCorrection)
	})
}

func TestStore_MerchantStatistics(t *testing.T) {
	stores(t, func(t *testing.T, s service.Store) {
		ctx := context.Background()

		confirm := func(user, merchant string, cat model.CategoryID, business bool) {
			t.Helper()
			require.NoError(t, s.SaveConfirmedTransaction(ctx, model.ConfirmedTransaction{
				UserID: user, MerchantName: merchant, CategoryID: cat, IsBusiness: business,
			}))
		}
		confirm("u1", "Amazon", model.CategorySupplies, true)
		confirm("u1", "AMAZON ", model.CategorySupplies, true)
		confirm("u1", "amazon", model.CategoryBooks, false)
		confirm("u1", "Lawson", model.CategoryPersonalFood, false)
		confirm("u2", "Amazon", model.CategorySoftware, true)

		stats, err := s.ComputeMerchantStatistics(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, stats, 2)

		amazon := stats["amazon"]
		require.NotNil(t, amazon)
		assert.Equal(t, 3, amazon.TotalTransactions)
		assert.Equal(t, 2, amazon.Tallies[model.CategorySupplies].Count)
		assert.Equal(t, 2, amazon.Tallies[model.CategorySupplies].BusinessCount)
		assert.Equal(t, 0, amazon.Tallies[model.CategoryBooks].BusinessCount)

		top, ok := amazon.MostFrequent()
		require.True(t, ok)
		assert.Equal(t, model.CategorySupplies, top.Category)

		err = s.SaveConfirmedTransaction(ctx, model.ConfirmedTransaction{UserID: "u1", CategoryID: model.CategorySupplies})
		assert.ErrorIs(t, err, ErrInvalidConfirmed)
	})
}

func TestMemoryStore_Failure(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.SetFailure(common.ErrStoreUnavailable)

	_, err := s.ApplyCorrection(ctx, correction("k", "m", "d", model.CategorySupplies, time.Now()))
	assert.True(t, common.IsRetryable(err))

	s.SetFailure(nil)
	_, err = s.ApplyCorrection(ctx, correction("k", "m", "d", model.CategorySupplies, time.Now()))
	assert.NoError(t, err)
}
