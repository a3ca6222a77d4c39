package strategy

import (
	"context"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// Industry strategy confidences.
const (
	IndustryToolConfidence      = 0.90
	IndustryEducationConfidence = 0.85
	IndustryTravelConfidence    = 0.88
)

// IndustryProfile lists the keywords that mean business spend for one industry.
type IndustryProfile struct {
	ToolCategory      model.CategoryID
	ToolKeywords      []string
	EducationKeywords []string
	TravelKeywords    []string
}

var (
	commonEducation = []string{"セミナー", "研修", "講座", "勉強会", "udemy", "coursera", "course", "seminar", "workshop"}
	commonTravel    = []string{"出張", "新幹線", "航空券", "日本航空", "全日空", "flight", "airline", "hotel"}
)

// DefaultIndustryProfiles returns the built-in industry table.
func DefaultIndustryProfiles() map[model.Industry]IndustryProfile {
	return map[model.Industry]IndustryProfile{
		model.IndustrySoftware: {
			ToolCategory:      model.CategorySoftware,
			ToolKeywords:      []string{"github", "aws", "gcp", "jetbrains", "vercel", "heroku", "サーバー", "ドメイン", "openai"},
			EducationKeywords: append([]string{"技術書", "oreilly", "カンファレンス"}, commonEducation...),
			TravelKeywords:    commonTravel,
		},
		model.IndustryDesign: {
			ToolCategory:      model.CategorySoftware,
			ToolKeywords:      []string{"adobe", "figma", "canva", "sketch", "フォント"},
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
		model.IndustryWriting: {
			ToolCategory:      model.CategoryBooks,
			ToolKeywords:      []string{"kindle", "書籍", "資料", "新聞", "雑誌"},
			EducationKeywords: commonEducation,
			TravelKeywords:    append([]string{"取材"}, commonTravel...),
		},
		model.IndustryConsulting: {
			ToolCategory:      model.CategorySoftware,
			ToolKeywords:      []string{"zoom", "notion", "slack", "google workspace", "microsoft 365"},
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
		model.IndustryPhotography: {
			ToolCategory:      model.CategorySupplies,
			ToolKeywords:      []string{"sdカード", "三脚", "フィルム", "ストロボ", "lightroom"},
			EducationKeywords: commonEducation,
			TravelKeywords:    append([]string{"撮影", "ロケ"}, commonTravel...),
		},
		model.IndustryECommerce: {
			ToolCategory:      model.CategoryFees,
			ToolKeywords:      []string{"shopify", "stores.jp", "決済手数料", "stripe"},
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
		model.IndustryFoodService: {
			ToolCategory:      model.CategorySupplies,
			ToolKeywords:      []string{"食材", "業務スーパー", "厨房", "調理器具", "包材"},
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
		model.IndustryConstruction: {
			ToolCategory:      model.CategorySupplies,
			ToolKeywords:      []string{"工具", "資材", "ホームセンター", "作業着", "monotaro"},
			EducationKeywords: append([]string{"講習"}, commonEducation...),
			TravelKeywords:    commonTravel,
		},
		model.IndustryEducation: {
			ToolCategory:      model.CategoryBooks,
			ToolKeywords:      []string{"教材", "参考書", "問題集", "教科書"},
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
		model.IndustryOther: {
			EducationKeywords: commonEducation,
			TravelKeywords:    commonTravel,
		},
	}
}

// IndustryStrategy recognizes spend typical of the user's declared industry.
// Every category it proposes is an expense, so revenue is left to other strategies.
type IndustryStrategy struct {
	profiles map[model.Industry]IndustryProfile
}

// NewIndustry validates and normalizes the industry table.
func NewIndustry(profiles map[model.Industry]IndustryProfile) (*IndustryStrategy, error) {
	out := make(map[model.Industry]IndustryProfile, len(profiles))
	for ind, p := range profiles {
		if _, err := model.ParseIndustry(string(ind)); err != nil {
			return nil, err
		}
		if len(p.ToolKeywords) > 0 {
			if _, ok := model.LookupCategory(p.ToolCategory); !ok {
				return nil, fmt.Errorf("industry %s: %w: %q", ind, model.ErrUnknownCategory, p.ToolCategory)
			}
		}
		out[ind] = IndustryProfile{
			ToolCategory:      p.ToolCategory,
			ToolKeywords:      textnorm.NormalizeAll(p.ToolKeywords),
			EducationKeywords: textnorm.NormalizeAll(p.EducationKeywords),
			TravelKeywords:    textnorm.NormalizeAll(p.TravelKeywords),
		}
	}
	return &IndustryStrategy{profiles: out}, nil
}

// Name implements Strategy.
func (s *IndustryStrategy) Name() model.StrategyName { return model.StrategyIndustry }

// Classify implements Strategy.
func (s *IndustryStrategy) Classify(_ context.Context, in Input) *model.ClassificationCandidate {
	if in.Profile == nil || in.Text == "" {
		return nil
	}
	p, ok := s.profiles[in.Profile.Industry]
	if !ok {
		return nil
	}

	if kw, hit := textnorm.ContainsAny(in.Text, p.ToolKeywords); hit && in.Record.AdmitsID(p.ToolCategory) {
		return model.NewCandidate(model.StrategyIndustry, p.ToolCategory, true, IndustryToolConfidence,
			fmt.Sprintf("%s tool for %s work", kw, in.Profile.Industry), kw)
	}
	if kw, hit := textnorm.ContainsAny(in.Text, p.EducationKeywords); hit && in.Record.AdmitsID(model.CategoryTraining) {
		business := in.Profile.BusinessFlag(model.PolicyTechnicalEducation, true)
		return model.NewCandidate(model.StrategyIndustry, model.CategoryTraining, business, IndustryEducationConfidence,
			fmt.Sprintf("professional education (%s)", kw), kw)
	}
	if kw, hit := textnorm.ContainsAny(in.Text, p.TravelKeywords); hit && in.Record.AdmitsID(model.CategoryTravel) {
		return model.NewCandidate(model.StrategyIndustry, model.CategoryTravel, true, IndustryTravelConfidence,
			fmt.Sprintf("business travel (%s)", kw), kw)
	}
	return nil
}
