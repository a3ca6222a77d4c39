package strategy

import (
	"context"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/model"
)

// Keyword matches the system rule catalog, falling back to fuzzy matching when no
// keyword occurs exactly. Rules whose category points the wrong way for the
// record's sign are skipped. A rule that names a profile policy takes its business
// flag (and business ratio for percentage policies) from the profile.
type Keyword struct {
	catalog *catalog.Catalog
}

// NewKeyword creates the keyword strategy.
func NewKeyword(cat *catalog.Catalog) *Keyword {
	return &Keyword{catalog: cat}
}

// Name implements Strategy.
func (s *Keyword) Name() model.StrategyName { return model.StrategyKeyword }

// Classify implements Strategy.
func (s *Keyword) Classify(_ context.Context, in Input) *model.ClassificationCandidate {
	if in.Text == "" {
		return nil
	}
	matches := s.catalog.Match(in.Text, func(r model.ClassificationRule) bool {
		return in.Record.AdmitsID(r.Category)
	})
	if len(matches) == 0 {
		return nil
	}

	best := matches[0]
	rule := best.Rule
	isBusiness := rule.IsBusiness
	if rule.Policy != "" {
		isBusiness = in.Profile.BusinessFlag(rule.Policy, rule.IsBusiness)
	}
	cand := best.Candidate(isBusiness)
	if rule.Policy != "" {
		if ratio, ok := in.Profile.BusinessRatio(rule.Policy); ok {
			cand.WithBusinessRatio(ratio)
		}
	}
	return cand
}
