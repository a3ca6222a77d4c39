package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
)

// Merchant statistics thresholds.
const (
	StatisticsMinTransactions = 3
	StatisticsScale           = 0.8
	StatisticsCap             = 0.85
	StatisticsFloor           = 0.5
)

// MerchantStatistics proposes the category a merchant is most often confirmed as.
type MerchantStatistics struct {
	source service.StatisticsSource
}

// NewMerchantStatistics creates the merchant statistics strategy.
func NewMerchantStatistics(source service.StatisticsSource) *MerchantStatistics {
	return &MerchantStatistics{source: source}
}

// Name implements Strategy.
func (s *MerchantStatistics) Name() model.StrategyName { return model.StrategyMerchantStatistics }

// Classify implements Strategy.
func (s *MerchantStatistics) Classify(ctx context.Context, in Input) *model.ClassificationCandidate {
	if s.source == nil || in.UserID == "" || in.Record.MerchantName == "" {
		return nil
	}
	stats, err := s.source.GetMerchantStatistics(ctx, in.UserID, in.Record.MerchantName)
	if err != nil {
		slog.Warn("Failed to read merchant statistics, ignoring",
			"user_id", in.UserID,
			"merchant", in.Record.MerchantName,
			"error", err)
		return nil
	}
	return candidateFromStatistics(stats)
}

func candidateFromStatistics(stats *model.MerchantStatistics) *model.ClassificationCandidate {
	if stats == nil || stats.TotalTransactions < StatisticsMinTransactions {
		return nil
	}
	top, ok := stats.MostFrequent()
	if !ok {
		return nil
	}
	if _, known := model.LookupCategory(top.Category); !known {
		return nil
	}

	ratio := float64(top.Count) / float64(stats.TotalTransactions)
	confidence := math.Min(ratio*StatisticsScale, StatisticsCap)
	if confidence < StatisticsFloor {
		return nil
	}

	isBusiness := top.BusinessCount*2 >= top.Count
	cand := model.NewCandidate(model.StrategyMerchantStatistics, top.Category, isBusiness, confidence,
		fmt.Sprintf("%d of %d confirmed transactions at this merchant", top.Count, stats.TotalTransactions),
		stats.Merchant)
	if top.BusinessCount > 0 && top.BusinessCount < top.Count {
		cand.WithBusinessRatio(float64(top.BusinessCount) / float64(top.Count))
	}
	return cand
}
