// Package model defines the core domain models used throughout the application.
package model

// StrategyName identifies the strategy that produced a candidate.
type StrategyName string

// Strategy names in cascade priority order.
const (
	StrategyUserOverride       StrategyName = "user_override"
	StrategyMerchantLearning   StrategyName = "merchant_learning"
	StrategyMerchantStatistics StrategyName = "merchant_statistics"
	StrategyIndustry           StrategyName = "industry"
	StrategyContextual         StrategyName = "contextual"
	StrategyKeyword            StrategyName = "keyword"
	StrategyFallback           StrategyName = "fallback"
)

// ClassificationCandidate is one strategy's proposal for a transaction.
type ClassificationCandidate struct {
	BusinessRatio   *float64
	CategoryName    string
	CategoryID      CategoryID
	Reasoning       string
	Source          StrategyName
	MatchedEvidence []string
	Confidence      float64
	IsBusiness      bool
}

// NewCandidate builds a candidate for a registered category.
func NewCandidate(source StrategyName, id CategoryID, isBusiness bool, confidence float64, reasoning string, evidence ...string) *ClassificationCandidate {
	cat := MustCategory(id)
	return &ClassificationCandidate{
		CategoryName:    cat.Name,
		CategoryID:      cat.ID,
		IsBusiness:      isBusiness,
		Confidence:      clampConfidence(confidence),
		Reasoning:       reasoning,
		Source:          source,
		MatchedEvidence: evidence,
	}
}

// WithBusinessRatio sets the partial business allocation.
func (c *ClassificationCandidate) WithBusinessRatio(ratio float64) *ClassificationCandidate {
	r := clampConfidence(ratio)
	c.BusinessRatio = &r
	return c
}

// ClassificationResult is the candidate chosen by the cascade, returned unchanged.
type ClassificationResult ClassificationCandidate

// NeedsReview reports whether the result must be confirmed by a human.
func (r ClassificationResult) NeedsReview(threshold float64) bool {
	return r.Confidence < threshold
}

func clampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
