// Package catalog holds the static keyword rules and matches them, together with
// a user's override rules, against transaction text.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/kakeibo/internal/fuzzy"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// FuzzyDiscount scales the confidence of matches found only by the fuzzy pass.
const FuzzyDiscount = 0.9

// Match is a system rule that matched some of its keywords.
type Match struct {
	Rule       model.ClassificationRule
	Matched    []string
	Ratio      float64
	Confidence float64
	Fuzzy      bool
	order      int
}

type compiledRule struct {
	model.ClassificationRule
	keywords []string
}

// Catalog matches text against system rules and user overrides.
// It is immutable after construction and safe for concurrent use.
type Catalog struct {
	rules          []compiledRule
	fuzzyThreshold float64
}

// New validates every rule against the category registry and compiles it.
func New(rules []model.ClassificationRule) (*Catalog, error) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
		compiled = append(compiled, compiledRule{
			ClassificationRule: r,
			keywords:           textnorm.NormalizeAll(r.Keywords),
		})
	}

	return &Catalog{rules: compiled, fuzzyThreshold: fuzzy.DefaultThreshold}, nil
}

// NewDefault builds a catalog from DefaultRules.
func NewDefault() (*Catalog, error) {
	return New(DefaultRules())
}

// RuleCount returns the number of system rules.
func (c *Catalog) RuleCount() int {
	return len(c.rules)
}

// MatchUserRules returns a confidence-1.0 candidate for the first user rule whose
// pattern occurs in text, or nil. text must already be normalized.
func (c *Catalog) MatchUserRules(text string, userRules []model.UserRule) *model.ClassificationCandidate {
	if text == "" {
		return nil
	}
	for _, ur := range userRules {
		pattern := textnorm.Normalize(ur.Pattern)
		if pattern == "" || !strings.Contains(text, pattern) {
			continue
		}
		if _, ok := model.LookupCategory(ur.Category); !ok {
			continue
		}
		return model.NewCandidate(model.StrategyUserOverride, ur.Category, ur.IsBusiness, 1.0,
			fmt.Sprintf("user rule %q matched", ur.Pattern), ur.Pattern)
	}
	return nil
}

// MatchSystem returns every system rule with at least one exact keyword hit,
// ordered by confidence and then by rule order.
func (c *Catalog) MatchSystem(text string) []Match {
	if text == "" {
		return nil
	}
	var matches []Match
	for i, r := range c.rules {
		var hit []string
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				hit = append(hit, kw)
			}
		}
		if len(hit) == 0 {
			continue
		}
		ratio := float64(len(hit)) / float64(len(r.keywords))
		matches = append(matches, Match{
			Rule:       r.ClassificationRule,
			Matched:    hit,
			Ratio:      ratio,
			Confidence: ratio * r.BaseConfidence,
			order:      i,
		})
	}
	sortMatches(matches)
	return matches
}

// MatchFuzzy repeats MatchSystem with approximate keyword matching. Confidence is
// discounted by FuzzyDiscount. Intended only as a second pass when MatchSystem
// finds nothing.
func (c *Catalog) MatchFuzzy(text string) []Match {
	if text == "" {
		return nil
	}
	var matches []Match
	for i, r := range c.rules {
		var hit []string
		for _, kw := range r.keywords {
			if fuzzy.Contains(text, kw, c.fuzzyThreshold) {
				hit = append(hit, kw)
			}
		}
		if len(hit) == 0 {
			continue
		}
		ratio := float64(len(hit)) / float64(len(r.keywords))
		matches = append(matches, Match{
			Rule:       r.ClassificationRule,
			Matched:    hit,
			Ratio:      ratio,
			Confidence: ratio * r.BaseConfidence * FuzzyDiscount,
			Fuzzy:      true,
			order:      i,
		})
	}
	sortMatches(matches)
	return matches
}

// Match returns the exact system matches for text, or the fuzzy ones when no rule
// matches exactly. keep, when non-nil, drops rules before that decision so a
// rejected exact hit still lets the fuzzy pass run.
func (c *Catalog) Match(text string, keep func(model.ClassificationRule) bool) []Match {
	matches := filterMatches(c.MatchSystem(text), keep)
	if len(matches) == 0 {
		matches = filterMatches(c.MatchFuzzy(text), keep)
	}
	return matches
}

// Lookup is the combined catalog view: user rules short-circuit with a single
// confidence-1.0 candidate; otherwise every matching system rule becomes a
// candidate. The engine consults the two halves through separate strategies;
// Lookup serves rule inspection from the CLI.
func (c *Catalog) Lookup(text string, userRules []model.UserRule) []model.ClassificationCandidate {
	text = textnorm.Normalize(text)
	if cand := c.MatchUserRules(text, userRules); cand != nil {
		return []model.ClassificationCandidate{*cand}
	}

	matches := c.Match(text, nil)
	out := make([]model.ClassificationCandidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, *m.Candidate(m.Rule.IsBusiness))
	}
	return out
}

// Candidate converts the match into a keyword candidate with the given business flag.
func (m Match) Candidate(isBusiness bool) *model.ClassificationCandidate {
	how := "matched"
	if m.Fuzzy {
		how = "fuzzy-matched"
	}
	reason := fmt.Sprintf("rule %q %s %d/%d keywords", m.Rule.Name, how, len(m.Matched), len(m.Rule.Keywords))
	return model.NewCandidate(model.StrategyKeyword, m.Rule.Category, isBusiness, m.Confidence, reason, m.Matched...)
}

func filterMatches(matches []Match, keep func(model.ClassificationRule) bool) []Match {
	if keep == nil {
		return matches
	}
	out := matches[:0]
	for _, m := range matches {
		if keep(m.Rule) {
			out = append(out, m)
		}
	}
	return out
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].order < matches[j].order
	})
}
