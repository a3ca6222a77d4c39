package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
	"github.com/shopspring/decimal"
)

// Fallback confidences.
const (
	FallbackBaseConfidence   = 0.1
	FallbackSignalConfidence = 0.1
	FallbackMaxConfidence    = 0.3
)

// Fallback produces the result of last resort. It never declines.
type Fallback struct {
	businessIntent []string
	businessAmount decimal.Decimal
}

// NewFallback creates the fallback strategy. Amounts at or above businessAmount
// count as a business signal.
func NewFallback(businessAmount decimal.Decimal) *Fallback {
	return &Fallback{
		businessIntent: textnorm.NormalizeAll(catalog.BusinessIntentKeywords),
		businessAmount: businessAmount,
	}
}

// Name returns the strategy name.
func (s *Fallback) Name() model.StrategyName { return model.StrategyFallback }

// Classify always returns a candidate.
func (s *Fallback) Classify(in Input) model.ClassificationCandidate {
	category := model.CategoryMiscellaneous
	if in.Record.IsRevenue() {
		category = model.CategoryMiscIncome
	}

	var signals []string
	if kw, ok := textnorm.ContainsAny(in.Text, s.businessIntent); ok {
		signals = append(signals, kw)
	}
	if s.businessAmount.IsPositive() && in.Record.Magnitude().GreaterThanOrEqual(s.businessAmount) {
		signals = append(signals, "¥"+in.Record.Magnitude().StringFixed(0))
	}

	confidence := math.Min(FallbackBaseConfidence+FallbackSignalConfidence*float64(len(signals)), FallbackMaxConfidence)
	confidence = math.Round(confidence*100) / 100

	reason := "no strategy produced a confident match"
	if len(signals) > 0 {
		reason = fmt.Sprintf("%s; business signals: %s", reason, strings.Join(signals, ", "))
	}
	return *model.NewCandidate(model.StrategyFallback, category, len(signals) > 0, confidence, reason, signals...)
}
