package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/statscache"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/Veraticus/kakeibo/internal/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store  *storage.MemoryStore
	stats  *statscache.Cache
	engine *ClassificationEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	stats, err := statscache.New(store, statscache.Config{})
	require.NoError(t, err)
	t.Cleanup(stats.Close)

	eng, err := New(Dependencies{Rules: store, Knowledge: store, Statistics: stats})
	require.NoError(t, err)
	return &testEnv{store: store, stats: stats, engine: eng}
}

func record(desc, merchant string, amount int64, tod string) model.TransactionRecord {
	r := model.TransactionRecord{
		Date:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(amount),
		Description:  desc,
		MerchantName: merchant,
	}
	if tod != "" {
		tt := model.MustTimeOfDay(tod)
		r.TimeOfDay = &tt
	}
	return r
}

func (e *testEnv) correct(t *testing.T, key string, r model.TransactionRecord, cat model.CategoryID) {
	t.Helper()
	c := model.MustCategory(cat)
	_, err := e.store.ApplyCorrection(context.Background(), model.CorrectionEvent{
		At:           time.Now(),
		Key:          key,
		UserID:       "u1",
		Fingerprint:  model.Fingerprint(r.MerchantName, r.Description),
		MerchantName: r.MerchantName,
		Description:  r.Description,
		CategoryName: c.Name,
		CategoryID:   c.ID,
		IsBusiness:   c.IsBusinessDefault(),
	})
	require.NoError(t, err)
}

func TestClassify_ScenarioA_CafeKeyword(t *testing.T) {
	env := newTestEnv(t)
	result := env.engine.Classify(context.Background(), "u1",
		record("スターバックス コーヒー", "スターバックス", -580, "10:30"), nil)

	assert.Equal(t, model.StrategyKeyword, result.Source)
	assert.Equal(t, model.CategoryMeetingExpense, result.CategoryID)
	assert.True(t, result.IsBusiness)
	assert.GreaterOrEqual(t, result.Confidence, 0.6)
	assert.LessOrEqual(t, result.Confidence, 0.7)
	assert.False(t, result.NeedsReview(env.engine.ReviewThreshold()))
}

func TestClassify_LearningOverridesKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := record("スターバックス コーヒー", "スターバックス", -580, "10:30")

	env.correct(t, "c1", r, model.CategoryPersonalFood)
	result := env.engine.Classify(ctx, "u1", r, nil)
	assert.Equal(t, model.StrategyMerchantLearning, result.Source)
	assert.Equal(t, model.CategoryPersonalFood, result.CategoryID)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)

	env.correct(t, "c2", r, model.CategoryPersonalFood)
	result = env.engine.Classify(ctx, "u1", r, nil)
	assert.Equal(t, model.StrategyMerchantLearning, result.Source)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)

	// Other users are unaffected.
	result = env.engine.Classify(ctx, "u2", r, nil)
	assert.Equal(t, model.StrategyKeyword, result.Source)
}

func TestClassify_SingleBrandKeyword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		desc         string
		wantCategory model.CategoryID
	}{
		{desc: "ドコモ ご利用料金", wantCategory: model.CategoryCommunication},
		{desc: "NETFLIX.COM", wantCategory: model.CategoryPersonalEntertainment},
		{desc: "ドトール 渋谷店", wantCategory: model.CategoryMeetingExpense},
		{desc: "紀伊國屋書店 新宿", wantCategory: model.CategoryBooks},
		{desc: "SUICA チャージ", wantCategory: model.CategoryTravel},
		{desc: "東京ガス ガス料金", wantCategory: model.CategoryUtilities},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := env.engine.Classify(ctx, "u1", record(tt.desc, "", -3000, "10:00"), nil)
			assert.Equal(t, model.StrategyKeyword, result.Source)
			assert.Equal(t, tt.wantCategory, result.CategoryID)
			assert.Greater(t, result.Confidence, DefaultConfig().MinConfidence)
		})
	}
}

func TestClassify_RevenueNeverLandsInExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	software := &model.UserProfile{UserID: "u1", Industry: model.IndustrySoftware}

	result := env.engine.Classify(ctx, "u1", record("GitHub Sponsors payout 売上", "", 50000, ""), software)
	assert.Equal(t, model.CategorySales, result.CategoryID)
	assert.Equal(t, model.StrategyKeyword, result.Source)

	result = env.engine.Classify(ctx, "u1", record("タクシー 立替精算 返金", "", 2400, ""), nil)
	assert.Equal(t, model.CategoryMiscIncome, result.CategoryID)
	assert.Equal(t, model.StrategyFallback, result.Source)

	// The same text as an expense still reaches the expense rules.
	result = env.engine.Classify(ctx, "u1", record("GitHub Sponsors payout", "", -50000, ""), software)
	assert.Equal(t, model.CategorySoftware, result.CategoryID)
	assert.Equal(t, model.StrategyIndustry, result.Source)
}

func TestClassify_ScenarioC_EquipmentPurchase(t *testing.T) {
	env := newTestEnv(t)
	result := env.engine.Classify(context.Background(), "u1",
		record("office equipment purchase", "", -50000, ""), nil)

	assert.Equal(t, model.StrategyContextual, result.Source)
	assert.Equal(t, model.CategoryFixedAssets, result.CategoryID)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestClassify_ScenarioD_EmptyRecord(t *testing.T) {
	env := newTestEnv(t)
	result := env.engine.Classify(context.Background(), "u1", model.TransactionRecord{}, nil)

	assert.Equal(t, model.StrategyFallback, result.Source)
	assert.Equal(t, model.CategoryMiscellaneous, result.CategoryID)
	assert.GreaterOrEqual(t, result.Confidence, 0.1)
	assert.LessOrEqual(t, result.Confidence, 0.3)
	assert.True(t, result.NeedsReview(env.engine.ReviewThreshold()))
}

func TestClassify_OverrideSupremacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	r := record("スターバックス コーヒー", "スターバックス", -580, "10:30")

	// Even a fully learned merchant loses to an explicit rule.
	for i := 0; i < 5; i++ {
		env.correct(t, fmt.Sprintf("c%d", i), r, model.CategoryMeetingExpense)
	}
	require.NoError(t, env.store.AddUserRule(ctx, &model.UserRule{
		UserID: "u1", Pattern: "スターバックス", Category: model.CategoryPersonalFood,
	}))

	result := env.engine.Classify(ctx, "u1", r, nil)
	assert.Equal(t, model.StrategyUserOverride, result.Source)
	assert.Equal(t, model.CategoryPersonalFood, result.CategoryID)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassify_StatisticsFromConfirmedHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, env.store.SaveConfirmedTransaction(ctx, model.ConfirmedTransaction{
			UserID: "u1", MerchantName: "Yodobashi", CategoryID: model.CategorySupplies, IsBusiness: true,
		}))
	}
	env.stats.Invalidate("u1")

	result := env.engine.Classify(ctx, "u1", record("purchase", "YODOBASHI", -2400, "15:00"), nil)
	assert.Equal(t, model.StrategyMerchantStatistics, result.Source)
	assert.Equal(t, model.CategorySupplies, result.CategoryID)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestClassify_IndustryBeatsWeakKeyword(t *testing.T) {
	env := newTestEnv(t)
	profile := &model.UserProfile{UserID: "u1", Industry: model.IndustrySoftware}

	result := env.engine.Classify(context.Background(), "u1", record("GitHub Team plan", "GitHub", -4000, "11:00"), profile)
	assert.Equal(t, model.StrategyIndustry, result.Source)
	assert.Equal(t, model.CategorySoftware, result.CategoryID)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

type stubStrategy struct {
	cand  *model.ClassificationCandidate
	name  model.StrategyName
	panic bool
}

func (s stubStrategy) Name() model.StrategyName { return s.name }

func (s stubStrategy) Classify(context.Context, strategy.Input) *model.ClassificationCandidate {
	if s.panic {
		panic("boom")
	}
	return s.cand
}

func stubEngine(t *testing.T, stubs ...strategy.Strategy) *ClassificationEngine {
	t.Helper()
	eng, err := New(Dependencies{})
	require.NoError(t, err)
	eng.strategies = stubs
	return eng
}

func TestClassify_SelectionPolicy(t *testing.T) {
	ctx := context.Background()
	r := record("anything", "", -1000, "")

	t.Run("ties go to the earlier strategy", func(t *testing.T) {
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyIndustry, cand: model.NewCandidate(model.StrategyIndustry, model.CategoryTravel, true, 0.8, "")},
			stubStrategy{name: model.StrategyKeyword, cand: model.NewCandidate(model.StrategyKeyword, model.CategoryMeals, true, 0.8, "")},
		)
		assert.Equal(t, model.CategoryTravel, eng.Classify(ctx, "u1", r, nil).CategoryID)
	})

	t.Run("highest confidence wins regardless of order", func(t *testing.T) {
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyIndustry, cand: model.NewCandidate(model.StrategyIndustry, model.CategoryTravel, true, 0.6, "")},
			stubStrategy{name: model.StrategyKeyword, cand: model.NewCandidate(model.StrategyKeyword, model.CategoryMeals, true, 0.8, "")},
		)
		assert.Equal(t, model.CategoryMeals, eng.Classify(ctx, "u1", r, nil).CategoryID)
	})

	t.Run("candidates at the floor are discarded", func(t *testing.T) {
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyKeyword, cand: model.NewCandidate(model.StrategyKeyword, model.CategoryMeals, true, 0.5, "")},
		)
		assert.Equal(t, model.StrategyFallback, eng.Classify(ctx, "u1", r, nil).Source)
	})

	t.Run("confident learning short-circuits", func(t *testing.T) {
		var later atomic.Int32
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyMerchantLearning, cand: model.NewCandidate(model.StrategyMerchantLearning, model.CategoryBooks, true, 0.9, "")},
			countingStrategy{calls: &later},
		)
		assert.Equal(t, model.CategoryBooks, eng.Classify(ctx, "u1", r, nil).CategoryID)
		assert.Zero(t, later.Load())
	})

	t.Run("weak learning does not short-circuit", func(t *testing.T) {
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyMerchantLearning, cand: model.NewCandidate(model.StrategyMerchantLearning, model.CategoryBooks, true, 0.7, "")},
			stubStrategy{name: model.StrategyContextual, cand: model.NewCandidate(model.StrategyContextual, model.CategoryFixedAssets, true, 0.85, "")},
		)
		assert.Equal(t, model.CategoryFixedAssets, eng.Classify(ctx, "u1", r, nil).CategoryID)
	})

	t.Run("panicking strategy is ignored", func(t *testing.T) {
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyIndustry, panic: true},
			stubStrategy{name: model.StrategyKeyword, cand: model.NewCandidate(model.StrategyKeyword, model.CategoryMeals, true, 0.8, "")},
		)
		assert.Equal(t, model.CategoryMeals, eng.Classify(ctx, "u1", r, nil).CategoryID)
	})

	t.Run("canceled context still yields a result", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		eng := stubEngine(t,
			stubStrategy{name: model.StrategyKeyword, cand: model.NewCandidate(model.StrategyKeyword, model.CategoryMeals, true, 0.8, "")},
		)
		assert.Equal(t, model.StrategyFallback, eng.Classify(canceled, "u1", r, nil).Source)
	})
}

type countingStrategy struct {
	calls *atomic.Int32
}

func (c countingStrategy) Name() model.StrategyName { return model.StrategyKeyword }

func (c countingStrategy) Classify(context.Context, strategy.Input) *model.ClassificationCandidate {
	c.calls.Add(1)
	return nil
}

func TestClassify_Totality(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	words := []string{"", " ", "ＡＷＳ", "タクシー", "lunch", "equipment", "会議", "？？", "\t\n", "スターバックス", "client", "ホテル"}
	times := []string{"", "00:00", "07:45", "12:00", "13:59", "18:59", "19:00", "23:59"}
	profiles := []*model.UserProfile{nil, {Industry: model.IndustrySoftware}, {Industry: "unknown"}}

	for i := 0; i < 300; i++ {
		r := record(words[rng.Intn(len(words))]+" "+words[rng.Intn(len(words))],
			words[rng.Intn(len(words))], rng.Int63n(200001)-100000, times[rng.Intn(len(times))])
		result := env.engine.Classify(ctx, "u1", r, profiles[rng.Intn(len(profiles))])

		_, known := model.LookupCategory(result.CategoryID)
		require.True(t, known, "record %+v produced unknown category %q", r, result.CategoryID)
		require.GreaterOrEqual(t, result.Confidence, 0.0)
		require.LessOrEqual(t, result.Confidence, 1.0)
		require.NotEmpty(t, result.Source)
	}
}

func TestClassifyBatch(t *testing.T) {
	env := newTestEnv(t)
	records := []model.TransactionRecord{
		record("スターバックス コーヒー", "スターバックス", -580, "10:30"),
		record("office equipment purchase", "", -50000, ""),
		{},
	}

	var done atomic.Int32
	results, summary, err := env.engine.ClassifyBatch(context.Background(), "u1", records, nil, func() { done.Add(1) })
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, model.StrategyKeyword, results[0].Source)
	assert.Equal(t, model.StrategyContextual, results[1].Source)
	assert.Equal(t, model.StrategyFallback, results[2].Source)
	assert.Equal(t, int32(3), done.Load())
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.NeedsReview)
	assert.Equal(t, 1, summary.BySource[model.StrategyFallback])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = env.engine.ClassifyBatch(ctx, "u1", records, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.BatchWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MinConfidence = 1
	assert.Error(t, cfg.Validate())

	_, err := NewWithConfig(Dependencies{}, cfg)
	assert.Error(t, err)
}

func TestStrategies_PriorityOrder(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, []model.StrategyName{
		model.StrategyUserOverride,
		model.StrategyMerchantLearning,
		model.StrategyMerchantStatistics,
		model.StrategyIndustry,
		model.StrategyContextual,
		model.StrategyKeyword,
		model.StrategyFallback,
	}, env.engine.Strategies())
}
