package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/engine"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/statscache"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Viper keys read by this package.
const (
	KeyDatabasePath           = "database.path"
	KeyLunchStart             = "classification.lunch_start"
	KeyLunchEnd               = "classification.lunch_end"
	KeyBusinessStart          = "classification.business_start"
	KeyBusinessEnd            = "classification.business_end"
	KeySmallExpenseCeiling    = "classification.small_expense_ceiling"
	KeyDepreciationThreshold  = "classification.depreciation_threshold"
	KeyFallbackBusinessAmount = "classification.fallback_business_amount"
	KeyReviewThreshold        = "classification.review_threshold"
	KeyStatsTTL               = "classification.stats_ttl"
	KeyBatchWorkers           = "classification.batch_workers"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/kakeibo/kakeibo.db"

// Settings is everything the CLI host reads from configuration.
type Settings struct {
	DatabasePath string
	Engine       engine.Config
	StatsTTL     time.Duration
}

// Load reads settings from the global viper instance.
func Load() (*Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads settings from v. Unset keys keep their defaults.
func LoadFrom(v *viper.Viper) (*Settings, error) {
	cfg, err := LoadEngineConfig(v)
	if err != nil {
		return nil, err
	}

	ttl := statscache.DefaultTTL
	if v.IsSet(KeyStatsTTL) {
		ttl = v.GetDuration(KeyStatsTTL)
		if ttl <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive, got %q", common.ErrInvalidConfig, KeyStatsTTL, v.GetString(KeyStatsTTL))
		}
	}

	return &Settings{
		DatabasePath: DatabasePath(v),
		Engine:       cfg,
		StatsTTL:     ttl,
	}, nil
}

// DatabasePath returns the expanded database path configured in v.
func DatabasePath(v *viper.Viper) string {
	path := v.GetString(KeyDatabasePath)
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// LoadEngineConfig overlays the classification.* keys of v on engine.DefaultConfig.
func LoadEngineConfig(v *viper.Viper) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	var err error
	cc := &cfg.Contextual
	if cc.LunchWindow.Start, err = timeOfDay(v, KeyLunchStart, cc.LunchWindow.Start); err != nil {
		return engine.Config{}, err
	}
	if cc.LunchWindow.End, err = timeOfDay(v, KeyLunchEnd, cc.LunchWindow.End); err != nil {
		return engine.Config{}, err
	}
	if cc.BusinessHours.Start, err = timeOfDay(v, KeyBusinessStart, cc.BusinessHours.Start); err != nil {
		return engine.Config{}, err
	}
	if cc.BusinessHours.End, err = timeOfDay(v, KeyBusinessEnd, cc.BusinessHours.End); err != nil {
		return engine.Config{}, err
	}
	if cc.SmallExpenseCeiling, err = amount(v, KeySmallExpenseCeiling, cc.SmallExpenseCeiling); err != nil {
		return engine.Config{}, err
	}
	if cc.DepreciationThreshold, err = amount(v, KeyDepreciationThreshold, cc.DepreciationThreshold); err != nil {
		return engine.Config{}, err
	}
	if cfg.FallbackBusinessAmount, err = amount(v, KeyFallbackBusinessAmount, cfg.FallbackBusinessAmount); err != nil {
		return engine.Config{}, err
	}
	if v.IsSet(KeyReviewThreshold) {
		cfg.ReviewThreshold = v.GetFloat64(KeyReviewThreshold)
	}
	if v.IsSet(KeyBatchWorkers) {
		cfg.BatchWorkers = v.GetInt(KeyBatchWorkers)
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func timeOfDay(v *viper.Viper, key string, def model.TimeOfDay) (model.TimeOfDay, error) {
	if !v.IsSet(key) {
		return def, nil
	}
	tod, err := model.ParseTimeOfDay(v.GetString(key))
	if err != nil {
		return model.TimeOfDay{}, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, key, err)
	}
	return tod, nil
}

// amount accepts both numbers and strings so that "30000" and 30000 behave alike in YAML.
func amount(v *viper.Viper, key string, def decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsSet(key) {
		return def, nil
	}
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, key, err)
	}
	return d, nil
}
