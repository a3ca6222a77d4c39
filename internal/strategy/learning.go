package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/service"
	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// MerchantLearning replays the category the user taught for the same merchant and description.
type MerchantLearning struct {
	store service.KnowledgeStore
}

// NewMerchantLearning creates the merchant learning strategy.
func NewMerchantLearning(store service.KnowledgeStore) *MerchantLearning {
	return &MerchantLearning{store: store}
}

// Name implements Strategy.
func (s *MerchantLearning) Name() model.StrategyName { return model.StrategyMerchantLearning }

// Classify implements Strategy.
func (s *MerchantLearning) Classify(ctx context.Context, in Input) *model.ClassificationCandidate {
	if s.store == nil || in.UserID == "" {
		return nil
	}
	r := in.Record
	if textnorm.Normalize(r.MerchantName) == "" && textnorm.Normalize(r.Description) == "" {
		return nil
	}

	fp := model.Fingerprint(r.MerchantName, r.Description)
	rec, err := s.store.GetLearningRecord(ctx, in.UserID, fp)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("Failed to read learning record, treating as unknown",
			"user_id", in.UserID,
			"fingerprint", fp,
			"error", err)
		return nil
	}
	if rec == nil || rec.CorrectionCount < 1 {
		return nil
	}
	if _, ok := model.LookupCategory(rec.CategoryID); !ok {
		slog.Warn("Learning record references unknown category",
			"user_id", in.UserID,
			"category", rec.CategoryID)
		return nil
	}

	reason := fmt.Sprintf("learned from %d user correction", rec.CorrectionCount)
	if rec.CorrectionCount != 1 {
		reason += "s"
	}
	return model.NewCandidate(model.StrategyMerchantLearning, rec.CategoryID, rec.IsBusiness,
		rec.Confidence(), reason, rec.MerchantName)
}
