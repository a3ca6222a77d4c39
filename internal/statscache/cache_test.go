package statscache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	stats map[string]map[string]*model.MerchantStatistics
	err   error
	calls map[string]int
	// When set, a load reports on entered and then waits on release.
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		stats: make(map[string]map[string]*model.MerchantStatistics),
		calls: make(map[string]int),
	}
}

func (f *fakeHistory) SaveConfirmedTransaction(context.Context, model.ConfirmedTransaction) error {
	return nil
}

func (f *fakeHistory) ComputeMerchantStatistics(_ context.Context, userID string) (map[string]*model.MerchantStatistics, error) {
	f.mu.Lock()
	f.calls[userID]++
	if f.err != nil {
		f.mu.Unlock()
		return nil, f.err
	}
	stats := f.stats[userID]
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return stats, nil
}

func (f *fakeHistory) callCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[userID]
}

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func amazonStats(n int) *model.MerchantStatistics {
	s := model.NewMerchantStatistics("amazon")
	for i := 0; i < n; i++ {
		s.Add(model.CategorySupplies, true)
	}
	return s
}

func TestCache_ServesWithinTTL(t *testing.T) {
	history := newFakeHistory()
	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(3)}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}

	c, err := New(history, Config{TTL: 5 * time.Minute, Now: clock.Now})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	stats, err := c.GetMerchantStatistics(ctx, "u1", " AMAZON ")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalTransactions)

	// History changes but the cached aggregate is still fresh.
	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(5)}
	clock.Advance(4 * time.Minute)
	stats, err = c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTransactions)

	// Past the TTL the aggregate is recomputed.
	clock.Advance(2 * time.Minute)
	stats, err = c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalTransactions)
	assert.GreaterOrEqual(t, history.callCount("u1"), 2)
}

func TestCache_InvalidateIsPerUser(t *testing.T) {
	history := newFakeHistory()
	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(3)}
	history.stats["u2"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(4)}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}

	c, err := New(history, Config{Now: clock.Now})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	_, err = c.GetMerchantStatistics(ctx, "u2", "amazon")
	require.NoError(t, err)

	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(7)}
	history.stats["u2"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(8)}
	c.Invalidate("u1")

	s1, err := c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	assert.Equal(t, 7, s1.TotalTransactions)

	n, err := c.Refresh(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	s2, err := c.GetMerchantStatistics(ctx, "u2", "amazon")
	require.NoError(t, err)
	assert.Equal(t, 8, s2.TotalTransactions)
}

func TestCache_UnknownMerchantAndErrors(t *testing.T) {
	history := newFakeHistory()
	c, err := New(history, Config{})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	stats, err := c.GetMerchantStatistics(ctx, "u1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, stats)

	stats, err = c.GetMerchantStatistics(ctx, "u1", "  ")
	require.NoError(t, err)
	assert.Nil(t, stats)

	history.err = errors.New("database is locked")
	_, err = c.GetMerchantStatistics(ctx, "u9", "amazon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestCache_InvalidateDuringLoadIsNotCached(t *testing.T) {
	history := newFakeHistory()
	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(3)}
	release := make(chan struct{})
	history.entered = make(chan struct{})
	history.release = release

	c, err := New(history, Config{TTL: time.Hour})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	done := make(chan *model.MerchantStatistics)
	go func() {
		got, _ := c.GetMerchantStatistics(ctx, "u1", "amazon")
		done <- got
	}()
	<-history.entered

	// A confirmation lands while the first load is still reading.
	history.mu.Lock()
	history.stats["u1"] = map[string]*model.MerchantStatistics{"amazon": amazonStats(4)}
	history.entered, history.release = nil, nil
	history.mu.Unlock()
	c.Invalidate("u1")

	// Callers arriving after the invalidation start their own load.
	got, err := c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.TotalTransactions)

	close(release)
	stale := <-done
	require.NotNil(t, stale)
	assert.Equal(t, 3, stale.TotalTransactions)

	got, err = c.GetMerchantStatistics(ctx, "u1", "amazon")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalTransactions, "the stale load must not replace the fresh entry")
	assert.Equal(t, 2, history.callCount("u1"))
}
