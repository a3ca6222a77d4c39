// Package engine runs the classification strategies in priority order and picks
// the winning candidate.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
	"github.com/Veraticus/kakeibo/internal/strategy"
	"github.com/shopspring/decimal"
)

// Config holds configuration options for the classification engine.
type Config struct {
	Industries             map[model.Industry]strategy.IndustryProfile
	Contextual             strategy.ContextualConfig
	FallbackBusinessAmount decimal.Decimal
	// LearningShortCircuit stops the cascade when merchant learning is at least this confident.
	LearningShortCircuit float64
	// MinConfidence discards candidates at or below it.
	MinConfidence   float64
	ReviewThreshold float64
	BatchWorkers    int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Industries:             strategy.DefaultIndustryProfiles(),
		Contextual:             strategy.DefaultContextualConfig(),
		FallbackBusinessAmount: decimal.NewFromInt(10000),
		LearningShortCircuit:   0.9,
		MinConfidence:          0.5,
		ReviewThreshold:        0.6,
		BatchWorkers:           4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LearningShortCircuit <= 0 || c.LearningShortCircuit > 1 {
		return fmt.Errorf("learning short-circuit %.2f out of range", c.LearningShortCircuit)
	}
	if c.MinConfidence < 0 || c.MinConfidence >= 1 {
		return fmt.Errorf("minimum confidence %.2f out of range", c.MinConfidence)
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 1 {
		return fmt.Errorf("review threshold %.2f out of range", c.ReviewThreshold)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch workers must be at least 1, got %d", c.BatchWorkers)
	}
	if c.FallbackBusinessAmount.IsNegative() {
		return fmt.Errorf("fallback business amount must not be negative")
	}
	return c.Contextual.Validate()
}

// Dependencies are the read-only sources the strategies consult. Any of them may
// be nil, in which case the strategies that need them never fire.
type Dependencies struct {
	Catalog    *catalog.Catalog
	Rules      service.RuleSource
	Knowledge  service.KnowledgeStore
	Statistics service.StatisticsSource
}

// ClassificationEngine orchestrates the classification of transactions.
type ClassificationEngine struct {
	fallback   *strategy.Fallback
	strategies []strategy.Strategy
	config     Config
}

// New creates a new classification engine with the default configuration.
func New(deps Dependencies) (*ClassificationEngine, error) {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates a new classification engine with custom configuration.
func NewWithConfig(deps Dependencies, config Config) (*ClassificationEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	cat := deps.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.NewDefault(); err != nil {
			return nil, fmt.Errorf("failed to build rule catalog: %w", err)
		}
	}
	industries := config.Industries
	if industries == nil {
		industries = strategy.DefaultIndustryProfiles()
	}
	industry, err := strategy.NewIndustry(industries)
	if err != nil {
		return nil, fmt.Errorf("failed to build industry table: %w", err)
	}
	contextual, err := strategy.NewContextual(config.Contextual)
	if err != nil {
		return nil, fmt.Errorf("failed to build contextual heuristics: %w", err)
	}

	return &ClassificationEngine{
		strategies: []strategy.Strategy{
			strategy.NewUserOverride(cat, deps.Rules),
			strategy.NewMerchantLearning(deps.Knowledge),
			strategy.NewMerchantStatistics(deps.Statistics),
			industry,
			contextual,
			strategy.NewKeyword(cat),
		},
		fallback: strategy.NewFallback(config.FallbackBusinessAmount),
		config:   config,
	}, nil
}

// Strategies returns the strategy names in priority order.
func (e *ClassificationEngine) Strategies() []model.StrategyName {
	names := make([]model.StrategyName, 0, len(e.strategies)+1)
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return append(names, e.fallback.Name())
}

// ReviewThreshold is the confidence below which results should be confirmed by a human.
func (e *ClassificationEngine) ReviewThreshold() float64 {
	return e.config.ReviewThreshold
}

// Classify always returns a result. profile may be nil.
//
// A user override wins outright, and so does merchant learning at or above the
// short-circuit confidence. Otherwise the most confident surviving candidate
// wins, ties going to the higher-priority strategy. When nothing survives the
// fallback strategy decides.
func (e *ClassificationEngine) Classify(ctx context.Context, userID string, record model.TransactionRecord, profile *model.UserProfile) model.ClassificationResult {
	in := strategy.NewInput(userID, record, profile)

	var best *model.ClassificationCandidate
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			slog.Debug("Classification interrupted", "user_id", userID, "at", s.Name(), "error", ctx.Err())
			break
		}

		cand := e.run(ctx, s, in)
		if cand == nil {
			continue
		}
		if cand.Source == model.StrategyUserOverride ||
			(cand.Source == model.StrategyMerchantLearning && cand.Confidence >= e.config.LearningShortCircuit) {
			return e.finish(userID, *cand)
		}
		if cand.Confidence <= e.config.MinConfidence {
			continue
		}
		if best == nil || cand.Confidence > best.Confidence {
			best = cand
		}
	}

	if best != nil {
		return e.finish(userID, *best)
	}
	return e.finish(userID, e.fallback.Classify(in))
}

// run isolates the cascade from a misbehaving strategy.
func (e *ClassificationEngine) run(ctx context.Context, s strategy.Strategy, in strategy.Input) (cand *model.ClassificationCandidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Strategy panicked, ignoring its opinion",
				"strategy", s.Name(),
				"panic", r)
			cand = nil
		}
	}()
	return s.Classify(ctx, in)
}

func (e *ClassificationEngine) finish(userID string, cand model.ClassificationCandidate) model.ClassificationResult {
	result := model.ClassificationResult(cand)
	slog.Debug("Classified transaction",
		"user_id", userID,
		"source", result.Source,
		"category", result.CategoryID,
		"confidence", result.Confidence,
		"needs_review", result.NeedsReview(e.config.ReviewThreshold))
	return result
}
