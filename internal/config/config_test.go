package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/engine"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/statscache"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("KAKEIBO_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: ""},
		{name: "tilde", path: "~", want: home},
		{name: "tilde prefix", path: "~/kakeibo.db", want: filepath.Join(home, "kakeibo.db")},
		{name: "env var", path: "$KAKEIBO_TEST_DIR/kakeibo.db", want: "/var/data/kakeibo.db"},
		{name: "absolute", path: "/tmp/kakeibo.db", want: "/tmp/kakeibo.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}

func TestLoadEngineConfig_Defaults(t *testing.T) {
	cfg, err := LoadEngineConfig(viper.New())
	require.NoError(t, err)

	def := engine.DefaultConfig()
	assert.Equal(t, def.Contextual, cfg.Contextual)
	assert.Equal(t, def.ReviewThreshold, cfg.ReviewThreshold)
	assert.Equal(t, def.BatchWorkers, cfg.BatchWorkers)
	assert.True(t, def.FallbackBusinessAmount.Equal(cfg.FallbackBusinessAmount))
}

func TestLoadEngineConfig_Overrides(t *testing.T) {
	v := viper.New()
	v.Set(KeyLunchStart, "12:00")
	v.Set(KeyLunchEnd, "13:30")
	v.Set(KeyBusinessStart, "08:00")
	v.Set(KeyBusinessEnd, "20:00")
	v.Set(KeySmallExpenseCeiling, 1000)
	v.Set(KeyDepreciationThreshold, "100000")
	v.Set(KeyFallbackBusinessAmount, 5000)
	v.Set(KeyReviewThreshold, 0.7)
	v.Set(KeyBatchWorkers, 8)

	cfg, err := LoadEngineConfig(v)
	require.NoError(t, err)

	assert.Equal(t, model.MustTimeOfDay("12:00"), cfg.Contextual.LunchWindow.Start)
	assert.Equal(t, model.MustTimeOfDay("13:30"), cfg.Contextual.LunchWindow.End)
	assert.Equal(t, model.MustTimeOfDay("08:00"), cfg.Contextual.BusinessHours.Start)
	assert.Equal(t, model.MustTimeOfDay("20:00"), cfg.Contextual.BusinessHours.End)
	assert.True(t, decimal.NewFromInt(1000).Equal(cfg.Contextual.SmallExpenseCeiling))
	assert.True(t, decimal.NewFromInt(100000).Equal(cfg.Contextual.DepreciationThreshold))
	assert.True(t, decimal.NewFromInt(5000).Equal(cfg.FallbackBusinessAmount))
	assert.InDelta(t, 0.7, cfg.ReviewThreshold, 1e-9)
	assert.Equal(t, 8, cfg.BatchWorkers)
}

func TestLoadEngineConfig_Invalid(t *testing.T) {
	tests := []struct {
		value any
		name  string
		key   string
	}{
		{name: "bad lunch start", key: KeyLunchStart, value: "noon"},
		{name: "inverted lunch window", key: KeyLunchEnd, value: "11:00"},
		{name: "bad amount", key: KeySmallExpenseCeiling, value: "five hundred"},
		{name: "zero depreciation threshold", key: KeyDepreciationThreshold, value: 0},
		{name: "review threshold above one", key: KeyReviewThreshold, value: 1.5},
		{name: "no workers", key: KeyBatchWorkers, value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := LoadEngineConfig(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := LoadFrom(viper.New())
		require.NoError(t, err)
		assert.Equal(t, statscache.DefaultTTL, s.StatsTTL)
		assert.Equal(t, ExpandPath(DefaultDatabasePath), s.DatabasePath)
	})

	t.Run("overrides", func(t *testing.T) {
		dir := t.TempDir()
		v := viper.New()
		v.Set(KeyDatabasePath, filepath.Join(dir, "k.db"))
		v.Set(KeyStatsTTL, "90s")

		s, err := LoadFrom(v)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, s.StatsTTL)
		assert.Equal(t, filepath.Join(dir, "k.db"), s.DatabasePath)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		v := viper.New()
		v.Set(KeyStatsTTL, "0s")

		_, err := LoadFrom(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}
