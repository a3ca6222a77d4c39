package strategy

import (
	"context"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
	"github.com/shopspring/decimal"
)

// Contextual strategy confidences.
const (
	FixedAssetConfidence   = 0.85
	LunchConfidence        = 0.75
	SmallExpenseConfidence = 0.70
	AfterHoursConfidence   = 0.60
)

// ContextualConfig holds the windows and amounts the contextual heuristics use.
type ContextualConfig struct {
	LunchWindow           model.TimeWindow
	BusinessHours         model.TimeWindow
	SmallExpenseCeiling   decimal.Decimal
	DepreciationThreshold decimal.Decimal
}

// DefaultContextualConfig returns the built-in heuristics configuration.
func DefaultContextualConfig() ContextualConfig {
	return ContextualConfig{
		LunchWindow: model.TimeWindow{
			Start: model.MustTimeOfDay("11:30"),
			End:   model.MustTimeOfDay("14:00"),
		},
		BusinessHours: model.TimeWindow{
			Start: model.MustTimeOfDay("09:00"),
			End:   model.MustTimeOfDay("19:00"),
		},
		SmallExpenseCeiling:   decimal.NewFromInt(500),
		DepreciationThreshold: decimal.NewFromInt(30000),
	}
}

// Validate checks the configuration for inverted windows and negative amounts.
func (c ContextualConfig) Validate() error {
	if c.LunchWindow.Start.Minutes() >= c.LunchWindow.End.Minutes() {
		return fmt.Errorf("lunch window %s is empty", c.LunchWindow)
	}
	if c.BusinessHours.Start.Minutes() >= c.BusinessHours.End.Minutes() {
		return fmt.Errorf("business hours %s are empty", c.BusinessHours)
	}
	if !c.SmallExpenseCeiling.IsPositive() {
		return fmt.Errorf("small expense ceiling must be positive, got %s", c.SmallExpenseCeiling)
	}
	if !c.DepreciationThreshold.IsPositive() {
		return fmt.Errorf("depreciation threshold must be positive, got %s", c.DepreciationThreshold)
	}
	return nil
}

// Contextual applies amount and time-of-day heuristics. The first applicable
// heuristic wins: equipment above the depreciation threshold, lunch-time food,
// small expenses, then spend outside business hours.
type Contextual struct {
	equipment      []string
	food           []string
	businessIntent []string
	cfg            ContextualConfig
}

// NewContextual creates the contextual strategy.
func NewContextual(cfg ContextualConfig) (*Contextual, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Contextual{
		equipment:      textnorm.NormalizeAll(catalog.EquipmentKeywords),
		food:           textnorm.NormalizeAll(catalog.FoodKeywords),
		businessIntent: textnorm.NormalizeAll(catalog.BusinessIntentKeywords),
		cfg:            cfg,
	}, nil
}

// Name implements Strategy.
func (s *Contextual) Name() model.StrategyName { return model.StrategyContextual }

// Classify implements Strategy.
func (s *Contextual) Classify(_ context.Context, in Input) *model.ClassificationCandidate {
	r := in.Record
	if r.Amount.IsZero() && in.Text == "" {
		return nil
	}
	amount := r.Magnitude()
	foodKw, hasFood := textnorm.ContainsAny(in.Text, s.food)

	if !r.IsRevenue() {
		threshold := in.Profile.Threshold(s.cfg.DepreciationThreshold)
		if kw, ok := textnorm.ContainsAny(in.Text, s.equipment); ok && amount.GreaterThanOrEqual(threshold) {
			return model.NewCandidate(model.StrategyContextual, model.CategoryFixedAssets, true, FixedAssetConfidence,
				fmt.Sprintf("equipment costing ¥%s meets the ¥%s depreciation threshold", amount.StringFixed(0), threshold.StringFixed(0)),
				kw)
		}
	}

	if r.TimeOfDay != nil && hasFood && s.cfg.LunchWindow.Contains(*r.TimeOfDay) {
		business := in.Profile.BusinessFlag(model.PolicyBusinessLunch, false)
		return model.NewCandidate(model.StrategyContextual, model.CategoryMeals, business, LunchConfidence,
			fmt.Sprintf("food purchase at %s during lunch hours", r.TimeOfDay), foodKw, r.TimeOfDay.String())
	}

	if r.IsExpense() && !hasFood && amount.LessThan(s.cfg.SmallExpenseCeiling) {
		return model.NewCandidate(model.StrategyContextual, model.CategorySupplies, true, SmallExpenseConfidence,
			fmt.Sprintf("small expense of ¥%s", amount.StringFixed(0)))
	}

	if r.IsExpense() && r.TimeOfDay != nil && !s.cfg.BusinessHours.Contains(*r.TimeOfDay) {
		if _, business := textnorm.ContainsAny(in.Text, s.businessIntent); !business {
			return model.NewCandidate(model.StrategyContextual, model.CategoryPersonal, false, AfterHoursConfidence,
				fmt.Sprintf("spent at %s outside business hours %s", r.TimeOfDay, s.cfg.BusinessHours), r.TimeOfDay.String())
		}
	}

	return nil
}
