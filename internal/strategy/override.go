package strategy

import (
	"context"
	"log/slog"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
)

// UserOverride applies the user's own pattern rules at confidence 1.0.
type UserOverride struct {
	catalog *catalog.Catalog
	rules   service.RuleSource
}

// NewUserOverride creates the user override strategy.
func NewUserOverride(cat *catalog.Catalog, rules service.RuleSource) *UserOverride {
	return &UserOverride{catalog: cat, rules: rules}
}

// Name implements Strategy.
func (s *UserOverride) Name() model.StrategyName { return model.StrategyUserOverride }

// Classify implements Strategy.
func (s *UserOverride) Classify(ctx context.Context, in Input) *model.ClassificationCandidate {
	if s.rules == nil || in.UserID == "" || in.Text == "" {
		return nil
	}
	rules, err := s.rules.GetUserRules(ctx, in.UserID)
	if err != nil {
		slog.Warn("Failed to load user rules, skipping overrides",
			"user_id", in.UserID,
			"error", err)
		return nil
	}
	return s.catalog.MatchUserRules(in.Text, rules)
}
